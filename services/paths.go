package services

import (
	"strings"

	"github.com/rpupo63/portfolio-backend/models"
)

// HomePath is the landing page aggregate; every featured entity appears there.
const HomePath = "/home"

// ProjectPaths returns the public paths that show a project of the given kind.
// Pass every slug the project had so a renamed project clears its old page.
func ProjectPaths(kind models.ProjectKind, slugs ...string) []string {
	return withDetails(kind.PublicPath(), slugs)
}

// BlogPaths returns the public paths that show a blog post.
func BlogPaths(slugs ...string) []string {
	return withDetails("/blog", slugs)
}

// SkillPaths returns the public paths that show skills.
func SkillPaths() []string {
	return []string{"/skills", HomePath}
}

func withDetails(root string, slugs []string) []string {
	paths := []string{root}
	seen := map[string]bool{}
	for _, slug := range slugs {
		slug = strings.TrimSpace(slug)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		paths = append(paths, root+"/"+slug)
	}
	return append(paths, HomePath)
}
