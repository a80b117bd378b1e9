package editor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple title", input: "Hello World", expected: "hello-world"},
		{name: "with special characters", input: "Hello, World!", expected: "hello-world"},
		{name: "with accents", input: "Café résumé", expected: "cafe-resume"},
		{name: "with tabs and runs of spaces", input: "Hello \t  World", expected: "hello-world"},
		{name: "with hyphens", input: "Hello - World", expected: "hello-world"},
		{name: "leading and trailing junk", input: "  --Hello World!--  ", expected: "hello-world"},
		{name: "all special characters", input: "!@#$%^&*()", expected: ""},
		{name: "numbers kept", input: "Rover v2 2024", expected: "rover-v2-2024"},
		{name: "non-breaking space", input: "Hello\u00a0World", expected: "hello-world"},
		{name: "em space", input: "Deep\u2003Learning", expected: "deep-learning"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slugify(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, got, Slugify(got), "slugify must be idempotent")
			if got != "" {
				assert.True(t, IsValidSlug(got))
			}
		})
	}
}

func TestIsValidSlug(t *testing.T) {
	assert.True(t, IsValidSlug("alpha-rover-2"))
	assert.False(t, IsValidSlug(""))
	assert.False(t, IsValidSlug("Alpha"))
	assert.False(t, IsValidSlug("-alpha"))
	assert.False(t, IsValidSlug("alpha--rover"))
	assert.False(t, IsValidSlug("alpha rover"))
}

func validForm() ProjectForm {
	f := NewProjectForm(models.KindProject)
	f.Title = "Alpha Rover"
	f.GenerateSlug()
	f.Description = "Mars rover prototype"
	return f
}

func TestProjectForm_GenerateSlugKeepsManualEdit(t *testing.T) {
	f := NewProjectForm(models.KindProject)
	f.Title = "Alpha Rover"
	assert.Equal(t, "alpha-rover", f.GenerateSlug())

	f.SetSlug("custom-slug")
	f.Title = "Something Else"
	assert.Equal(t, "custom-slug", f.GenerateSlug())

	f.SetSlug("")
	assert.Equal(t, "something-else", f.GenerateSlug())
}

func TestProjectForm_RequiredFields(t *testing.T) {
	fe := NewProjectForm(models.KindResearch).Validate()

	assert.Contains(t, fe, "title")
	assert.Contains(t, fe, "slug")
	assert.Contains(t, fe, "description")

	_, err := NewProjectForm(models.KindResearch).Payload()
	require.Error(t, err)
	assert.True(t, errs.IsValidationError(err))

	var apiErr *errs.ApiErr
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 422, apiErr.StatusCode)
	assert.Contains(t, apiErr.Fields, "title")
}

func TestProjectForm_NumericBounds(t *testing.T) {
	tests := []struct {
		name       string
		completion Numeric
		teamSize   Numeric
		wantFields []string
	}{
		{name: "empty is allowed", completion: "", teamSize: ""},
		{name: "in range", completion: "55", teamSize: "3"},
		{name: "completion above 100", completion: "101", wantFields: []string{"completion"}},
		{name: "completion negative", completion: "-1", wantFields: []string{"completion"}},
		{name: "completion not a number", completion: "half", wantFields: []string{"completion"}},
		{name: "team size zero", completion: "10", teamSize: "0", wantFields: []string{"team_size"}},
		{name: "team size fractional", teamSize: "2.5", wantFields: []string{"team_size"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			f.Completion = tt.completion
			f.TeamSize = tt.teamSize

			fe := f.Validate()

			assert.Len(t, fe, len(tt.wantFields))
			for _, field := range tt.wantFields {
				assert.Contains(t, fe, field)
			}
		})
	}
}

func TestNumeric_UnmarshalJSON(t *testing.T) {
	var f ProjectForm
	require.NoError(t, json.Unmarshal([]byte(`{"completion": 42, "team_size": "7"}`), &f))
	assert.Equal(t, Numeric("42"), f.Completion)
	assert.Equal(t, Numeric("7"), f.TeamSize)

	require.NoError(t, json.Unmarshal([]byte(`{"completion": null, "team_size": "lots"}`), &f))
	assert.True(t, f.Completion.IsEmpty())
	_, err := f.TeamSize.Int()
	assert.Error(t, err)
}

func TestProjectForm_Dates(t *testing.T) {
	f := validForm()
	f.StartDate = "2024-03-01"
	f.EndDate = "2024-02-01"
	assert.Contains(t, f.Validate(), "end_date")

	f.EndDate = "03/04/2024"
	assert.Contains(t, f.Validate(), "end_date")

	f.EndDate = ""
	p, err := f.Payload()
	require.NoError(t, err)
	assert.Nil(t, p.EndDate)
	require.NotNil(t, p.StartDate)
	assert.Equal(t, "2024-03-01", p.StartDate.String())

	data, err := json.Marshal(p)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "end_date")
	assert.Equal(t, "2024-03-01", raw["start_date"])
}

func TestProjectForm_OngoingToggle(t *testing.T) {
	f := validForm()
	require.NoError(t, f.SetEndDate("2024-01-01"))
	f.Status = models.StatusCompleted

	f.SetOngoing(true)

	assert.Equal(t, models.StatusInProgress, f.Status)
	assert.Empty(t, f.EndDate)
	assert.ErrorIs(t, f.SetEndDate("2024-05-05"), errs.ErrEndDateLocked)

	p, err := f.Payload()
	require.NoError(t, err)
	assert.Nil(t, p.EndDate)
	assert.True(t, p.IsOngoing)
	assert.Equal(t, models.StatusInProgress, p.Status)

	f.SetOngoing(false)
	assert.Equal(t, models.StatusCompleted, f.Status)
	assert.NoError(t, f.SetEndDate("2024-05-05"))
}

func TestProjectForm_OngoingIgnoresSubmittedEndDate(t *testing.T) {
	f := validForm()
	f.IsOngoing = true
	f.EndDate = "not even a date"

	p, err := f.Payload()

	require.NoError(t, err)
	assert.Nil(t, p.EndDate)
}

func TestList_AddUpdateRemove(t *testing.T) {
	var milestones List[Milestone]

	assert.Error(t, milestones.Add(Milestone{}))
	assert.Error(t, milestones.Add(Milestone{Description: "ship", DueDate: "tomorrow"}))
	require.NoError(t, milestones.Add(Milestone{Description: "design"}))
	require.NoError(t, milestones.Add(Milestone{Description: "build", DueDate: "2024-06-01"}))
	require.NoError(t, milestones.Add(Milestone{Description: "ship"}))

	require.NoError(t, milestones.Update(1, Milestone{Description: "build v2", Completed: true}))
	assert.Equal(t, "build v2", milestones[1].Description)
	assert.Error(t, milestones.Update(1, Milestone{}))
	assert.ErrorIs(t, milestones.Update(9, Milestone{Description: "x"}), errs.ErrIndexOutOfRange)

	require.NoError(t, milestones.Remove(0))
	assert.ErrorIs(t, milestones.Remove(-1), errs.ErrIndexOutOfRange)
	require.Equal(t, 2, milestones.Len())
	assert.Equal(t, "build v2", milestones[0].Description)
	assert.Equal(t, "ship", milestones[1].Description)

	var images List[Image]
	assert.Error(t, images.Add(Image{URL: "not a url"}))
	assert.NoError(t, images.Add(Image{URL: "/img/rover.png"}))
	assert.NoError(t, images.Add(Image{URL: "https://cdn.example.com/a.png", Caption: "a"}))
}

func TestProjectForm_PayloadRoundTrip(t *testing.T) {
	f := validForm()
	f.Completion = "60"
	f.TeamSize = "4"
	f.Priority = "HIGH"
	require.NoError(t, f.Technologies.Add("Go"))
	require.NoError(t, f.Technologies.Add("PostgreSQL"))
	require.NoError(t, f.Milestones.Add(Milestone{Description: "prototype", DueDate: "2024-05-01", Completed: true}))
	require.NoError(t, f.Challenges.Add(Challenge{Description: "dust"}))
	require.NoError(t, f.Resources.Add(Resource{Title: "paper", URL: "https://example.com/paper.pdf", Type: "paper"}))
	require.NoError(t, f.KeyAchievements.Add("won a prize"))

	p, err := f.Payload()
	require.NoError(t, err)

	assert.Equal(t, 60, p.Completion)
	require.NotNil(t, p.TeamSize)
	assert.Equal(t, 4, *p.TeamSize)
	assert.Equal(t, models.PriorityHigh, p.Priority)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, p.TechnologyValues())
	require.Len(t, p.Milestones, 1)
	assert.Equal(t, 0, p.Milestones[0].Position)

	back := FromProject(p)
	assert.Equal(t, f.Technologies, back.Technologies)
	assert.Equal(t, f.Milestones, back.Milestones)
	assert.Equal(t, f.Challenges, back.Challenges)
	assert.Equal(t, f.Resources, back.Resources)
	assert.Equal(t, f.KeyAchievements, back.KeyAchievements)
	assert.True(t, back.SlugEdited)
}

func TestBlogPostForm(t *testing.T) {
	f := NewBlogPostForm()
	fe := f.Validate()
	assert.Contains(t, fe, "title")
	assert.Contains(t, fe, "slug")
	assert.Contains(t, fe, "content")

	f.Title = "Hello Go"
	f.GenerateSlug()
	f.Content = "# hi"
	f.Tags = List[Tag]{"go", "Go"}
	assert.Contains(t, f.Validate(), "tags")

	f.Tags = List[Tag]{"go", "web"}
	post, err := f.Payload()
	require.NoError(t, err)
	assert.Equal(t, "hello-go", post.Slug)
	assert.Equal(t, []string{"go", "web"}, post.TagValues())
}

func TestSkillForm(t *testing.T) {
	f := NewSkillForm()
	f.Name = "Go"
	f.Category = "Languages"
	f.Proficiency = "11"
	assert.Contains(t, f.Validate(), "proficiency")

	f.Proficiency = "9"
	f.Color = "blue"
	assert.Contains(t, f.Validate(), "color")

	f.Color = "#00ADD8"
	skill, err := f.Payload()
	require.NoError(t, err)
	assert.Equal(t, 9, skill.Proficiency)
	require.NotNil(t, skill.Color)
	assert.Nil(t, skill.Description)

	assert.Equal(t, f, FromSkill(skill))
}

type recordingRevalidator struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingRevalidator) Revalidate(paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, paths...)
}

func TestSubmit_SuccessRevalidates(t *testing.T) {
	rev := &recordingRevalidator{}
	s := NewSubmitter(rev)

	res, err := Submit(context.Background(), s, Submission[models.Project]{
		Key:      "create:project:alpha",
		Redirect: "/admin/projects",
		Save: func(ctx context.Context) (models.Project, error) {
			return models.Project{ID: 3, Slug: "alpha"}, nil
		},
		Paths: func(p models.Project) []string { return []string{"/projects", "/projects/" + p.Slug} },
	})

	require.NoError(t, err)
	assert.Equal(t, "/admin/projects", res.Redirect)
	assert.Equal(t, uint(3), res.Entity.ID)
	assert.Equal(t, []string{"/projects", "/projects/alpha"}, rev.paths)
	assert.False(t, s.InFlight("create:project:alpha"))
}

func TestSubmit_FailureSkipsRevalidationAndReleases(t *testing.T) {
	rev := &recordingRevalidator{}
	s := NewSubmitter(rev)
	boom := errors.New("boom")

	_, err := Submit(context.Background(), s, Submission[models.Project]{
		Key:   "update:project:1",
		Save:  func(ctx context.Context) (models.Project, error) { return models.Project{}, boom },
		Paths: func(models.Project) []string { return []string{"/projects"} },
	})

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, rev.paths)
	assert.False(t, s.InFlight("update:project:1"))
}

func TestSubmit_RejectsDuplicateInFlight(t *testing.T) {
	s := NewSubmitter(nil)
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := Submit(context.Background(), s, Submission[int]{
			Key: "update:skill:4",
			Save: func(ctx context.Context) (int, error) {
				close(started)
				<-release
				return 4, nil
			},
		})
		done <- err
	}()

	<-started
	_, err := Submit(context.Background(), s, Submission[int]{
		Key:  "update:skill:4",
		Save: func(ctx context.Context) (int, error) { return 0, nil },
	})
	assert.True(t, errs.IsSubmissionInFlightError(err))

	_, err = Submit(context.Background(), s, Submission[int]{
		Key:  "update:skill:5",
		Save: func(ctx context.Context) (int, error) { return 5, nil },
	})
	assert.NoError(t, err)

	close(release)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("first submission never finished")
	}
}
