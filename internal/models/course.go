package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ResourceType is the coarse classification of an uploaded file.
type ResourceType string

const (
	ResourcePDF ResourceType = "PDF"
	ResourcePPT ResourceType = "PPT"
	ResourceDOC ResourceType = "DOC"
)

// ClassifyResource derives the resource type from a file name suffix.
func ClassifyResource(filename string) ResourceType {
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".pdf"):
		return ResourcePDF
	case strings.HasSuffix(name, ".ppt"), strings.HasSuffix(name, ".pptx"):
		return ResourcePPT
	default:
		return ResourceDOC
	}
}

// FormatResourceSize renders a byte count as megabytes with two decimals.
// Sub-megabyte files render as "0.00 MB" and similar.
func FormatResourceSize(bytes int64) string {
	mb := float64(bytes) / 1024 / 1024
	return fmt.Sprintf("%.2f MB", math.Round(mb*100)/100)
}

// Resource is the metadata of a file uploaded to a course.
type Resource struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Type       ResourceType `json:"type"`
	UploadedBy string       `json:"uploadedBy"`
	UploadDate time.Time    `json:"uploadDate"`
	Size       string       `json:"size"`
}

// Course is owned by one teacher and optionally liaised by a class rep.
type Course struct {
	ID                    string     `json:"id"`
	Code                  string     `json:"code"`
	Title                 string     `json:"title"`
	Department            string     `json:"department"`
	Semester              string     `json:"semester"`
	Section               string     `json:"section"`
	TeacherID             string     `json:"teacherId"`
	CRID                  string     `json:"crId"`
	IsPublishedToStudents bool       `json:"isPublishedToStudents"`
	Resources             []Resource `json:"resources"`
	StudentIDs            []string   `json:"studentIds"`
}

// Clone returns a copy that shares no slices with c.
func (c Course) Clone() Course {
	out := c
	out.Resources = append([]Resource{}, c.Resources...)
	out.StudentIDs = append([]string{}, c.StudentIDs...)
	return out
}

// Cohort is the (department, semester, section) triple students are
// matched against.
type Cohort struct {
	Department string
	Semester   string
	Section    string
}

// Cohort returns the course's audience triple.
func (c Course) Cohort() Cohort {
	return Cohort{Department: c.Department, Semester: c.Semester, Section: c.Section}
}

// Matches reports whether the user sits in this cohort.
func (c Cohort) Matches(u User) bool {
	return u.Department == c.Department && u.Semester == c.Semester && u.Section == c.Section
}
