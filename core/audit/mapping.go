package audit

import (
	"io/ioutil"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type (
	// Paths lists gjson paths tried in order; the first one present in the response wins.
	Paths []string

	StudentPaths struct {
		Name     Paths `yaml:"name"`
		Major    Paths `yaml:"major"`
		GPA      Paths `yaml:"gpa"`
		Semester Paths `yaml:"semester"`
	}

	CreditPaths struct {
		Completed  Paths `yaml:"completed"`
		InProgress Paths `yaml:"inProgress"`
		Remaining  Paths `yaml:"remaining"`
	}

	CoursePaths struct {
		Code    Paths `yaml:"code"`
		Title   Paths `yaml:"title"`
		Credits Paths `yaml:"credits"`
		Status  Paths `yaml:"status"`
		Term    Paths `yaml:"term"`
		Year    Paths `yaml:"year"`
		Grade   Paths `yaml:"grade"`
	}

	// Mapping describes where each field lives in an analysis response.
	// Summary and Root are looked up from the top of the document; every other path is
	// relative to the data root (the document itself when no Root path is present).
	// Course paths are relative to a single course object.
	Mapping struct {
		Summary      Paths        `yaml:"summary"`
		Root         Paths        `yaml:"root"`
		Student      StudentPaths `yaml:"student"`
		Credits      CreditPaths  `yaml:"credits"`
		Courses      Paths        `yaml:"courses"`
		Course       CoursePaths  `yaml:"course"`
		Placeholders []string     `yaml:"placeholders"`
	}
)

// DefaultMapping covers the response shapes the analysis services are known to return.
func DefaultMapping() Mapping {
	return Mapping{
		Summary: Paths{"summary", "summary_text", "summaryText", "structured_data.Summary"},
		Root:    Paths{"structured_data", "structuredData", "data"},
		Student: StudentPaths{
			Name:     Paths{"Student Name", "student_name", "studentName", "student.name", "name"},
			Major:    Paths{"Major / Program", "major_program", "major", "program", "student.major"},
			GPA:      Paths{"Cumulative GPA", "cumulative_gpa", "gpa", "GPA", "student.gpa"},
			Semester: Paths{"Semester", "semester", "student.semester"},
		},
		Credits: CreditPaths{
			Completed: Paths{
				"Credits.Completed Credits", "Credits.Completed", "credits.completed",
				"credits.completed_credits", "completed_credits",
			},
			InProgress: Paths{
				"Credits.In Progress Credits", "Credits.In Progress", "credits.in_progress",
				"credits.inProgress", "credits.in_progress_credits", "in_progress_credits",
			},
			Remaining: Paths{
				"Credits.Remaining Credits", "Credits.Remaining", "credits.remaining",
				"credits.remaining_credits", "remaining_credits",
			},
		},
		Courses: Paths{"Courses", "courses"},
		Course: CoursePaths{
			Code:    Paths{"code", "course_code", "courseCode", "course"},
			Title:   Paths{"title", "name", "course_title"},
			Credits: Paths{"units", "credits", "credit_hours", "creditHours"},
			Status:  Paths{"status"},
			Term:    Paths{"term", "semester"},
			Year:    Paths{"year"},
			Grade:   Paths{"grade"},
		},
		Placeholders: []string{"Not listed", "Not Found"},
	}
}

// LoadMapping reads a YAML mapping file. Paths it declares are tried before the default ones.
// An empty path returns DefaultMapping.
func LoadMapping(path string) (Mapping, error) {
	def := DefaultMapping()
	if path == "" {
		return def, nil
	}

	content, err := ioutil.ReadFile(path)
	if err != nil {
		return def, errors.Wrap(err, "reading mapping file")
	}
	var m Mapping
	if err := yaml.Unmarshal(content, &m); err != nil {
		return def, errors.Wrapf(err, "parsing mapping file %s", path)
	}
	return m.extend(def), nil
}

func (m Mapping) extend(def Mapping) Mapping {
	return Mapping{
		Summary: merge(m.Summary, def.Summary),
		Root:    merge(m.Root, def.Root),
		Student: StudentPaths{
			Name:     merge(m.Student.Name, def.Student.Name),
			Major:    merge(m.Student.Major, def.Student.Major),
			GPA:      merge(m.Student.GPA, def.Student.GPA),
			Semester: merge(m.Student.Semester, def.Student.Semester),
		},
		Credits: CreditPaths{
			Completed:  merge(m.Credits.Completed, def.Credits.Completed),
			InProgress: merge(m.Credits.InProgress, def.Credits.InProgress),
			Remaining:  merge(m.Credits.Remaining, def.Credits.Remaining),
		},
		Courses: merge(m.Courses, def.Courses),
		Course: CoursePaths{
			Code:    merge(m.Course.Code, def.Course.Code),
			Title:   merge(m.Course.Title, def.Course.Title),
			Credits: merge(m.Course.Credits, def.Course.Credits),
			Status:  merge(m.Course.Status, def.Course.Status),
			Term:    merge(m.Course.Term, def.Course.Term),
			Year:    merge(m.Course.Year, def.Course.Year),
			Grade:   merge(m.Course.Grade, def.Course.Grade),
		},
		Placeholders: merge(m.Placeholders, def.Placeholders),
	}
}

func merge(first, then []string) []string {
	out := make([]string, 0, len(first)+len(then))
	seen := make(map[string]bool, len(first)+len(then))
	for _, lst := range [][]string{first, then} {
		for _, p := range lst {
			if p = strings.TrimSpace(p); p == "" || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

func (m Mapping) isPlaceholder(s string) bool {
	s = strings.TrimSpace(s)
	for _, p := range m.Placeholders {
		if strings.EqualFold(s, p) {
			return true
		}
	}
	return false
}
