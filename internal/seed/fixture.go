package seed

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/validate"
)

// Fixture is a catalog snapshot described by keys instead of ids. Keys only
// need to be unique within their own list.
type Fixture struct {
	Categories  []CategoryFixture   `yaml:"categories" validate:"dive"`
	Users       []UserFixture       `yaml:"users" validate:"dive"`
	Courses     []CourseFixture     `yaml:"courses" validate:"dive"`
	Enrollments []EnrollmentFixture `yaml:"enrollments" validate:"dive"`
	Completions []CompletionFixture `yaml:"completions" validate:"dive"`
	Reviews     []ReviewFixture     `yaml:"reviews" validate:"dive"`
}

type CategoryFixture struct {
	Key         string `yaml:"key" validate:"required"`
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description"`
}

type UserFixture struct {
	Key       string `yaml:"key" validate:"required"`
	Email     string `yaml:"email" validate:"required,email"`
	FirstName string `yaml:"first_name" validate:"required"`
	LastName  string `yaml:"last_name"`
	Role      string `yaml:"role" validate:"required,oneof=student instructor admin Student Instructor Admin"`
	AvatarURL string `yaml:"avatar_url" validate:"omitempty,url"`
}

type CourseFixture struct {
	Key          string           `yaml:"key" validate:"required"`
	Instructor   string           `yaml:"instructor" validate:"required"`
	Category     string           `yaml:"category" validate:"required"`
	Name         string           `yaml:"name" validate:"required"`
	Description  string           `yaml:"description"`
	Price        int64            `yaml:"price" validate:"gte=0"`
	ThumbnailURL string           `yaml:"thumbnail_url"`
	Tags         []string         `yaml:"tags"`
	Instructions []string         `yaml:"instructions"`
	Publish      bool             `yaml:"publish"`
	Sections     []SectionFixture `yaml:"sections" validate:"dive"`
}

type SectionFixture struct {
	Name     string           `yaml:"name" validate:"required"`
	Lectures []LectureFixture `yaml:"lectures" validate:"dive"`
}

type LectureFixture struct {
	Key             string `yaml:"key" validate:"required"`
	Title           string `yaml:"title" validate:"required"`
	Description     string `yaml:"description"`
	VideoURL        string `yaml:"video_url"`
	DurationSeconds int64  `yaml:"duration_seconds" validate:"gte=0"`
}

type EnrollmentFixture struct {
	User   string `yaml:"user" validate:"required"`
	Course string `yaml:"course" validate:"required"`
}

type CompletionFixture struct {
	User    string `yaml:"user" validate:"required"`
	Course  string `yaml:"course" validate:"required"`
	Lecture string `yaml:"lecture" validate:"required"`
}

type ReviewFixture struct {
	User   string `yaml:"user" validate:"required"`
	Course string `yaml:"course" validate:"required"`
	Rating int    `yaml:"rating" validate:"min=1,max=5"`
	Text   string `yaml:"text"`
}

func LoadFile(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	fx, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fx, nil
}

// Parse decodes a fixture and rejects unknown fields, malformed entries and
// duplicate keys.
func Parse(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var fx Fixture
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := validate.Check(fx); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}
	if err := fx.checkKeys(); err != nil {
		return nil, err
	}
	return &fx, nil
}

func (fx *Fixture) checkKeys() error {
	seen := map[string]bool{}
	check := func(kind, key string) error {
		k := kind + ":" + key
		if seen[k] {
			return fmt.Errorf("duplicate %s key %q", kind, key)
		}
		seen[k] = true
		return nil
	}
	for _, c := range fx.Categories {
		if err := check("category", c.Key); err != nil {
			return err
		}
	}
	for _, u := range fx.Users {
		if err := check("user", u.Key); err != nil {
			return err
		}
	}
	for _, c := range fx.Courses {
		if err := check("course", c.Key); err != nil {
			return err
		}
		for _, s := range c.Sections {
			for _, l := range s.Lectures {
				if err := check("lecture", c.Key+"/"+l.Key); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
