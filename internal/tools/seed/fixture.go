// Package seed loads YAML fixtures of reference data, projects and
// engagement into a tracker store for local development.
package seed

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures/*.yaml
var fixtureFS embed.FS

// DemoFixture names the embedded fixture used when no file is given.
const DemoFixture = "fixtures/demo.yaml"

// Fixture is the document shape of a seed file.
type Fixture struct {
	Statuses    []Status     `yaml:"statuses"`
	Locations   []Location   `yaml:"locations"`
	Contractors []Contractor `yaml:"contractors"`
	Users       []User       `yaml:"users"`
	Projects    []Project    `yaml:"projects"`
	Comments    []Comment    `yaml:"comments"`
	Reactions   []Reaction   `yaml:"reactions"`
}

type Status struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type Location struct {
	ID     string `yaml:"id"`
	Region string `yaml:"region"`
	City   string `yaml:"city"`
}

type Contractor struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type User struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	AvatarURL string `yaml:"avatarUrl"`
	Role      string `yaml:"role"`
}

// Project references its status, location and contractor by id and carries
// its milestones and images inline.
type Project struct {
	ID              string      `yaml:"id"`
	Title           string      `yaml:"title"`
	Description     string      `yaml:"description"`
	Amount          float64     `yaml:"amount"`
	Status          string      `yaml:"status"`
	Location        string      `yaml:"location"`
	Contractor      string      `yaml:"contractor"`
	Progress        int         `yaml:"progress"`
	Reason          string      `yaml:"reason"`
	ExpectedOutcome string      `yaml:"expectedOutcome"`
	CreatedBy       string      `yaml:"createdBy"`
	CreatedAt       time.Time   `yaml:"createdAt"`
	Milestones      []Milestone `yaml:"milestones"`
	Images          []Image     `yaml:"images"`
}

type Milestone struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	TargetDate  time.Time `yaml:"targetDate"`
	Completed   bool      `yaml:"completed"`
}

type Image struct {
	ID      string `yaml:"id"`
	URL     string `yaml:"url"`
	Caption string `yaml:"caption"`
}

// Comment is a top-level comment, or a reply when Parent is set.
type Comment struct {
	ID        string    `yaml:"id"`
	Project   string    `yaml:"project"`
	User      string    `yaml:"user"`
	Parent    string    `yaml:"parent"`
	Content   string    `yaml:"content"`
	CreatedAt time.Time `yaml:"createdAt"`
}

// Reaction targets a project or a comment by id.
type Reaction struct {
	Project string `yaml:"project"`
	Comment string `yaml:"comment"`
	User    string `yaml:"user"`
	Vote    string `yaml:"vote"`
}

// LoadFile reads a fixture from disk, or the embedded demo fixture when
// path is empty.
func LoadFile(path string) (Fixture, error) {
	var (
		data []byte
		err  error
	)
	if strings.TrimSpace(path) == "" {
		data, err = fixtureFS.ReadFile(DemoFixture)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a fixture. Unknown keys are rejected.
func Parse(data []byte) (Fixture, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var fixture Fixture
	if err := decoder.Decode(&fixture); err != nil && !errors.Is(err, io.EOF) {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	if err := fixture.Validate(); err != nil {
		return Fixture{}, err
	}
	return fixture, nil
}

// Validate checks ids are unique and references resolve within the fixture.
func (f Fixture) Validate() error {
	var errs []error
	dupes := func(kind string, ids []string) {
		for _, id := range lo.FindDuplicates(ids) {
			errs = append(errs, fmt.Errorf("duplicate %s id %q", kind, id))
		}
	}
	dupes("status", lo.Map(f.Statuses, func(s Status, _ int) string { return s.ID }))
	dupes("location", lo.Map(f.Locations, func(l Location, _ int) string { return l.ID }))
	dupes("contractor", lo.Map(f.Contractors, func(c Contractor, _ int) string { return c.ID }))
	dupes("user", lo.Map(f.Users, func(u User, _ int) string { return u.ID }))
	dupes("project", lo.Map(f.Projects, func(p Project, _ int) string { return p.ID }))
	dupes("comment", lo.Map(f.Comments, func(c Comment, _ int) string { return c.ID }))

	statuses := lo.Associate(f.Statuses, func(s Status) (string, bool) { return s.ID, true })
	locations := lo.Associate(f.Locations, func(l Location) (string, bool) { return l.ID, true })
	contractors := lo.Associate(f.Contractors, func(c Contractor) (string, bool) { return c.ID, true })
	projects := lo.Associate(f.Projects, func(p Project) (string, bool) { return p.ID, true })
	comments := lo.Associate(f.Comments, func(c Comment) (string, Comment) { return c.ID, c })

	for _, p := range f.Projects {
		if !statuses[p.Status] {
			errs = append(errs, fmt.Errorf("project %q: unknown status %q", p.ID, p.Status))
		}
		if !locations[p.Location] {
			errs = append(errs, fmt.Errorf("project %q: unknown location %q", p.ID, p.Location))
		}
		if p.Contractor != "" && !contractors[p.Contractor] {
			errs = append(errs, fmt.Errorf("project %q: unknown contractor %q", p.ID, p.Contractor))
		}
	}
	for _, c := range f.Comments {
		if !projects[c.Project] {
			errs = append(errs, fmt.Errorf("comment %q: unknown project %q", c.ID, c.Project))
		}
		if c.Parent == "" {
			continue
		}
		parent, ok := comments[c.Parent]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("comment %q: unknown parent %q", c.ID, c.Parent))
		case parent.Parent != "":
			errs = append(errs, fmt.Errorf("comment %q: parent %q is itself a reply", c.ID, c.Parent))
		case parent.Project != c.Project:
			errs = append(errs, fmt.Errorf("comment %q: parent %q is on another project", c.ID, c.Parent))
		}
	}
	for i, r := range f.Reactions {
		switch {
		case (r.Project == "") == (r.Comment == ""):
			errs = append(errs, fmt.Errorf("reaction %d: exactly one of project or comment is required", i))
		case r.Project != "" && !projects[r.Project]:
			errs = append(errs, fmt.Errorf("reaction %d: unknown project %q", i, r.Project))
		case r.Comment != "" && !lo.HasKey(comments, r.Comment):
			errs = append(errs, fmt.Errorf("reaction %d: unknown comment %q", i, r.Comment))
		}
	}
	return errors.Join(errs...)
}
