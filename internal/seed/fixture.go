package seed

import (
	"context"
	"fmt"
	"io"
	"os"

	"kidflix/internal/models"
	"kidflix/internal/session"
	"kidflix/internal/store"

	"gopkg.in/yaml.v3"
)

// Fixture is a hand-written data set referencing users by username.
type Fixture struct {
	Users    []FixtureUser    `yaml:"users"`
	Posts    []FixturePost    `yaml:"posts"`
	Messages []FixtureMessage `yaml:"messages"`
}

type FixtureUser struct {
	Username string      `yaml:"username"`
	Email    string      `yaml:"email"`
	Password string      `yaml:"password"`
	Role     models.Role `yaml:"role"`
	Follows  []string    `yaml:"follows"`
}

type FixturePost struct {
	Author   string           `yaml:"author"`
	Caption  string           `yaml:"caption"`
	FileURL  string           `yaml:"file_url"`
	FileType string           `yaml:"file_type"`
	Likes    []string         `yaml:"likes"`
	Comments []FixtureComment `yaml:"comments"`
}

type FixtureComment struct {
	Author string `yaml:"author"`
	Text   string `yaml:"text"`
}

type FixtureMessage struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Text string `yaml:"text"`
}

// ParseFixture decodes a YAML fixture.
func ParseFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, models.NewValidationError(fmt.Sprintf("invalid fixture: %v", err))
	}
	return &f, nil
}

// LoadFixture reads and decodes a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer fh.Close()
	return ParseFixture(fh)
}

// Apply creates the fixture's entities in order: users, follows, posts
// with their likes and comments, then messages.
func (f *Fixture) Apply(ctx context.Context, st *store.Store) (Result, error) {
	var res Result
	ids := make(map[string]string, len(f.Users))
	resolve := func(username string) (string, error) {
		if id, ok := ids[username]; ok {
			return id, nil
		}
		if u, ok := st.State().UserByUsername(username); ok {
			return u.ID, nil
		}
		return "", models.NewValidationError(fmt.Sprintf("fixture references unknown user %q", username))
	}

	for _, fu := range f.Users {
		password := fu.Password
		if password == "" {
			password = DefaultPassword
		}
		u, err := st.CreateUser(ctx, fu.Username, fu.Email, session.HashPassword(password))
		if err != nil {
			return res, err
		}
		ids[fu.Username] = u.ID
		res.Users++
		if fu.Role != "" && fu.Role != models.RoleUser {
			if _, err := st.SetRole(ctx, u.ID, fu.Role); err != nil {
				return res, err
			}
		}
	}

	for _, fu := range f.Users {
		for _, target := range fu.Follows {
			targetID, err := resolve(target)
			if err != nil {
				return res, err
			}
			u := ids[fu.Username]
			if cur, _ := st.State().User(u); cur != nil && cur.IsFollowing(targetID) {
				continue
			}
			if err := st.ToggleFollow(ctx, u, targetID); err != nil {
				return res, err
			}
			res.Follows++
		}
	}

	for _, fp := range f.Posts {
		authorID, err := resolve(fp.Author)
		if err != nil {
			return res, err
		}
		p, err := st.CreatePost(ctx, authorID, models.PostInput{
			Caption:  fp.Caption,
			FileURL:  fp.FileURL,
			FileType: fp.FileType,
		})
		if err != nil {
			return res, err
		}
		res.Posts++
		for _, liker := range fp.Likes {
			likerID, err := resolve(liker)
			if err != nil {
				return res, err
			}
			if err := st.ToggleLike(ctx, p.ID, likerID); err != nil {
				return res, err
			}
			res.Likes++
		}
		for _, c := range fp.Comments {
			commenterID, err := resolve(c.Author)
			if err != nil {
				return res, err
			}
			if _, err := st.AddComment(ctx, p.ID, commenterID, c.Text); err != nil {
				return res, err
			}
			res.Comments++
		}
	}

	for _, fm := range f.Messages {
		from, err := resolve(fm.From)
		if err != nil {
			return res, err
		}
		to, err := resolve(fm.To)
		if err != nil {
			return res, err
		}
		if _, err := st.SendMessage(ctx, from, to, fm.Text); err != nil {
			return res, err
		}
		res.Messages++
	}
	return res, nil
}
