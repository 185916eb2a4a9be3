// Package seed provides helpers to create demo and fixture data through
// the entity store. These helpers are intended for development and
// testing only.
package seed

import (
	"context"
	"fmt"

	"kidflix/internal/models"
	"kidflix/internal/session"
	"kidflix/internal/store"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword is the password every demo account gets.
const DefaultPassword = "password"

// Options configuration for the demo seeder
type Options struct {
	NumUsers        int
	PostsPerUser    int
	FollowsPerUser  int
	CommentsPerPost int
	NumMessages     int
	Password        string
	// Seed makes the generated content reproducible; 0 picks a random seed.
	Seed int64
}

// Result summarizes what a seeding run created.
type Result struct {
	Users    int
	Posts    int
	Follows  int
	Likes    int
	Comments int
	Messages int
}

func (o Options) withDefaults() Options {
	if o.NumUsers <= 0 {
		o.NumUsers = 8
	}
	if o.PostsPerUser < 0 {
		o.PostsPerUser = 0
	}
	if o.Password == "" {
		o.Password = DefaultPassword
	}
	return o
}

// Demo fills the store with fake users, follow edges, posts, likes,
// comments and messages.
func Demo(ctx context.Context, st *store.Store, opts Options) (Result, error) {
	opts = opts.withDefaults()
	faker := gofakeit.New(opts.Seed)
	var res Result

	users := make([]*models.User, 0, opts.NumUsers)
	for len(users) < opts.NumUsers {
		username := faker.Username() + fmt.Sprintf("%d", faker.Number(100, 999))
		u, err := st.CreateUser(ctx, username, faker.Email(), session.HashPassword(opts.Password))
		if models.HasCode(err, models.CodeDuplicateUsername) {
			continue
		}
		if err != nil {
			return res, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, u)
		res.Users++
	}

	for i, u := range users {
		for k := 0; k < opts.FollowsPerUser && k < len(users)-1; k++ {
			target := users[(i+1+k)%len(users)]
			if err := st.ToggleFollow(ctx, u.ID, target.ID); err != nil {
				return res, fmt.Errorf("failed to follow: %w", err)
			}
			res.Follows++
		}
	}

	for _, u := range users {
		for k := 0; k < opts.PostsPerUser; k++ {
			in := models.PostInput{Caption: faker.Sentence(6)}
			if faker.Bool() {
				in.FileURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", faker.UUID())
				in.FileType = "image/jpeg"
				in.FileName = "photo.jpg"
			}
			p, err := st.CreatePost(ctx, u.ID, in)
			if err != nil {
				return res, fmt.Errorf("failed to create post: %w", err)
			}
			res.Posts++

			for c := 0; c < opts.CommentsPerPost; c++ {
				author := users[faker.Number(0, len(users)-1)]
				if _, err := st.AddComment(ctx, p.ID, author.ID, faker.Sentence(8)); err != nil {
					return res, fmt.Errorf("failed to comment: %w", err)
				}
				res.Comments++
			}
			liker := users[faker.Number(0, len(users)-1)]
			if liker.ID != u.ID {
				if err := st.ToggleLike(ctx, p.ID, liker.ID); err != nil {
					return res, fmt.Errorf("failed to like: %w", err)
				}
				res.Likes++
			}
		}
	}

	if len(users) > 1 {
		for k := 0; k < opts.NumMessages; k++ {
			from := users[faker.Number(0, len(users)-1)]
			to := users[faker.Number(0, len(users)-1)]
			if from.ID == to.ID {
				to = users[(indexOf(users, from)+1)%len(users)]
			}
			if _, err := st.SendMessage(ctx, from.ID, to.ID, faker.Sentence(7)); err != nil {
				return res, fmt.Errorf("failed to send message: %w", err)
			}
			res.Messages++
		}
	}

	return res, nil
}

func indexOf(users []*models.User, u *models.User) int {
	for i := range users {
		if users[i].ID == u.ID {
			return i
		}
	}
	return 0
}
