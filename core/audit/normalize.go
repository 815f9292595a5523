package audit

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/trezcool/degreeaudit/core/plan"
)

// Student holds the identification fields shown above the plan.
type Student struct {
	Name     string `json:"name"`
	Major    string `json:"major"`
	GPA      string `json:"gpa"`
	Semester string `json:"semester"`
}

// Extract is an analysis response normalized into the plan model.
type Extract struct {
	Summary string
	Student Student
	Courses []plan.Course
	Credits plan.CreditTotals

	// HasCredits is false when the response carried no aggregate credit at all.
	HasCredits bool
}

var leadingNumberRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)`)

// ParseNumber extracts the leading number of a value: 3 gives 3, "3.0 cr" gives 3, "abc" gives 0.
func ParseNumber(v gjson.Result) float64 {
	switch v.Type {
	case gjson.Number:
		return v.Num
	case gjson.String:
		m := leadingNumberRegex.FindString(strings.TrimSpace(v.Str))
		if m == "" {
			return 0
		}
		n, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Normalize reads an analysis response. It fails with ErrInvalidResponse only when raw is not
// a JSON object; missing fields are left empty.
func (m Mapping) Normalize(raw []byte) (*Extract, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidResponse
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, ErrInvalidResponse
	}

	root := doc
	if r := first(doc, m.Root); r.IsObject() {
		root = r
	}

	ext := &Extract{
		Summary: summaryText(first(doc, m.Summary)),
		Student: Student{
			Name:     m.text(first(root, m.Student.Name)),
			Major:    m.text(first(root, m.Student.Major)),
			GPA:      m.text(first(root, m.Student.GPA)),
			Semester: m.text(first(root, m.Student.Semester)),
		},
	}

	completed := first(root, m.Credits.Completed)
	inProgress := first(root, m.Credits.InProgress)
	remaining := first(root, m.Credits.Remaining)
	ext.HasCredits = completed.Exists() || inProgress.Exists() || remaining.Exists()
	ext.Credits = plan.CreditTotals{
		Completed:  ParseNumber(completed),
		InProgress: ParseNumber(inProgress),
		Remaining:  ParseNumber(remaining),
	}

	ext.Courses = m.courses(first(root, m.Courses))
	return ext, nil
}

// courses accepts either a flat list, or an object of lists keyed by status
// ({"Taken": [...], "Remaining": [...]}) where the key is the default status of its entries.
func (m Mapping) courses(v gjson.Result) []plan.Course {
	var out []plan.Course
	switch {
	case v.IsArray():
		out = m.courseList(v, "")
	case v.IsObject():
		v.ForEach(func(key, value gjson.Result) bool {
			if value.IsArray() {
				out = append(out, m.courseList(value, key.String())...)
			}
			return true
		})
	}
	return out
}

func (m Mapping) courseList(lst gjson.Result, status string) []plan.Course {
	var out []plan.Course
	lst.ForEach(func(_, item gjson.Result) bool {
		if c, ok := m.course(item, status); ok {
			out = append(out, c)
		}
		return true
	})
	return out
}

func (m Mapping) course(item gjson.Result, status string) (plan.Course, bool) {
	switch {
	case item.Type == gjson.String:
		code := strings.TrimSpace(item.Str)
		if code == "" || m.isPlaceholder(code) {
			return plan.Course{}, false
		}
		return plan.Course{Code: code, Status: status}, true

	case item.IsObject():
		c := plan.Course{
			Code:    m.text(first(item, m.Course.Code)),
			Title:   m.text(first(item, m.Course.Title)),
			Credits: ParseNumber(first(item, m.Course.Credits)),
			Status:  m.text(first(item, m.Course.Status)),
			Term:    m.text(first(item, m.Course.Term)),
			Year:    m.text(first(item, m.Course.Year)),
			Grade:   m.text(first(item, m.Course.Grade)),
		}
		if isBlank(c) {
			return plan.Course{}, false
		}
		if c.Status == "" {
			c.Status = status
		}
		return c, true

	default:
		return plan.Course{}, false
	}
}

// isBlank reports whether none of the mapped course fields carried a value.
// Unnamed entries with credits, a status or a term are kept.
func isBlank(c plan.Course) bool {
	return c.Code == "" && c.Title == "" && c.Credits <= 0 &&
		c.Status == "" && c.Term == "" && c.Year == "" && c.Grade == ""
}

// text returns a scalar as trimmed text, "" for placeholders and non-scalars.
func (m Mapping) text(v gjson.Result) string {
	switch v.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		s := strings.TrimSpace(v.String())
		if m.isPlaceholder(s) {
			return ""
		}
		return s
	default:
		return ""
	}
}

func summaryText(v gjson.Result) string {
	switch {
	case !v.Exists() || v.Type == gjson.Null:
		return ""
	case v.Type == gjson.String:
		return strings.TrimSpace(v.Str)
	default:
		return strings.TrimSpace(string(pretty.PrettyOptions([]byte(v.Raw), &pretty.Options{Width: 80, Indent: "  "})))
	}
}

func first(v gjson.Result, paths Paths) gjson.Result {
	for _, p := range paths {
		if r := v.Get(p); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}
