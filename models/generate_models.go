package models

import (
	"fmt"
	"log"
	"os"
	"reflect"
	"sort"
	"strings"

	"gorm.io/gen"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

/*
Model generation and column mismatch report.

The schema itself is owned by the goose migrations in database/migrations. These
helpers only read it:

1. GENERATE_MODELS=true writes typed query helpers for every model to ./generated
   and prints the column mismatch report.
2. GENERATE_COLUMN_REPORT=true prints the column mismatch report only.

Example output:
=== COLUMN MISMATCH REPORT ===
--- Table: projects ---
Found 1 columns not accounted for in model:
  - legacy_slug

=== SUMMARY ===
Total mismatched columns across all tables: 1
*/

// All lists every persisted model, in dependency order.
func All() []any {
	return []any{
		Project{},
		ProjectTechnology{},
		ProjectMilestone{},
		ProjectChallenge{},
		ProjectResource{},
		ProjectImage{},
		BlogCategory{},
		BlogPost{},
		BlogTag{},
		Skill{},
	}
}

// tableModels maps table names to their model structs.
var tableModels = map[string]any{
	"projects":             Project{},
	"project_technologies": ProjectTechnology{},
	"project_milestones":   ProjectMilestone{},
	"project_challenges":   ProjectChallenge{},
	"project_resources":    ProjectResource{},
	"project_images":       ProjectImage{},
	"blog_categories":      BlogCategory{},
	"blog_posts":           BlogPost{},
	"blog_tags":            BlogTag{},
	"skills":               Skill{},
}

func GenerateModels(db *gorm.DB) {
	if err := db.Exec("SELECT 1").Error; err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}

	verbose := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			LogLevel:                  logger.Info,
			IgnoreRecordNotFoundError: false,
			Colorful:                  true,
		},
	)
	db = db.Session(&gorm.Session{Logger: verbose, PrepareStmt: false})

	g := gen.NewGenerator(gen.Config{
		OutPath:           "./generated",
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(db)
	g.ApplyBasic(All()...)

	GenerateColumnMismatchReport(db)

	g.Execute()
	fmt.Println("Model generation complete!")
}

// GenerateColumnMismatchReport prints the database columns that no model field maps to.
func GenerateColumnMismatchReport(db *gorm.DB) {
	fmt.Println("=== COLUMN MISMATCH REPORT ===")

	tables := make([]string, 0, len(tableModels))
	for name := range tableModels {
		tables = append(tables, name)
	}
	sort.Strings(tables)

	totalMismatches := 0
	for _, tableName := range tables {
		fmt.Printf("\n--- Table: %s ---\n", tableName)

		dbColumns, err := getTableColumns(db, tableName)
		if err != nil {
			if strings.Contains(err.Error(), "does not exist") {
				fmt.Println("Table does not exist yet (run the migrations first)")
			} else {
				fmt.Printf("Error getting columns for table %s: %v\n", tableName, err)
			}
			continue
		}

		mismatches := findColumnMismatches(dbColumns, getModelFields(tableModels[tableName]))
		if len(mismatches) > 0 {
			fmt.Printf("Found %d columns not accounted for in model:\n", len(mismatches))
			for _, col := range mismatches {
				fmt.Printf("  - %s\n", col)
			}
			totalMismatches += len(mismatches)
		} else {
			fmt.Println("All columns are accounted for in the model.")
		}
	}

	fmt.Printf("\n=== SUMMARY ===\n")
	fmt.Printf("Total mismatched columns across all tables: %d\n", totalMismatches)
}

func getTableColumns(db *gorm.DB, tableName string) ([]string, error) {
	var columns []string
	query := `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = ?
		AND table_schema = CURRENT_SCHEMA()
		ORDER BY ordinal_position
	`
	if err := db.Raw(query, tableName).Scan(&columns).Error; err != nil {
		return nil, fmt.Errorf("error querying columns for table %s: %w", tableName, err)
	}

	if len(columns) == 0 {
		var tableExists bool
		tableQuery := `
			SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_schema = CURRENT_SCHEMA()
				AND table_name = ?
			)
		`
		if err := db.Raw(tableQuery, tableName).Scan(&tableExists).Error; err != nil {
			return nil, fmt.Errorf("error checking if table %s exists: %w", tableName, err)
		}
		if !tableExists {
			return nil, fmt.Errorf("table %s does not exist", tableName)
		}
	}

	return columns, nil
}

// getModelFields returns the column names a model maps, skipping associations.
func getModelFields(model any) []string {
	var fields []string
	naming := schema.NamingStrategy{}
	t := reflect.TypeOf(model)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			continue
		}
		gormTag := field.Tag.Get("gorm")
		if gormTag == "-" || strings.Contains(gormTag, "foreignKey:") {
			continue
		}
		if columnName := extractColumnNameFromGormTag(gormTag); columnName != "" {
			fields = append(fields, columnName)
			continue
		}
		fields = append(fields, naming.ColumnName("", field.Name))
	}

	return fields
}

func extractColumnNameFromGormTag(gormTag string) string {
	for _, part := range strings.Split(gormTag, ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "column:") {
			return strings.TrimPrefix(part, "column:")
		}
	}
	return ""
}

func findColumnMismatches(dbColumns, modelFields []string) []string {
	modelFieldSet := make(map[string]bool, len(modelFields))
	for _, field := range modelFields {
		modelFieldSet[field] = true
	}

	var mismatches []string
	for _, col := range dbColumns {
		if !modelFieldSet[col] {
			mismatches = append(mismatches, col)
		}
	}
	return mismatches
}

// GenerateColumnMismatchReportStandalone checks connectivity and prints the report.
func GenerateColumnMismatchReportStandalone(db *gorm.DB) {
	if err := db.Exec("SELECT 1").Error; err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	GenerateColumnMismatchReport(db)
}
