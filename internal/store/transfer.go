package store

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"kidflix/internal/models"
	"kidflix/internal/observability"

	"golang.org/x/crypto/blake2b"
)

// transferVersion is the only envelope version Import accepts.
const transferVersion = 1

type envelope struct {
	Version  int             `json:"version"`
	Checksum string          `json:"checksum"`
	Data     json.RawMessage `json:"data"`
}

// ImportResult counts the entities an import appended.
type ImportResult struct {
	Users         int `json:"users"`
	Posts         int `json:"posts"`
	Messages      int `json:"messages"`
	Notifications int `json:"notifications"`
}

// Total is the number of appended entities of every kind.
func (r ImportResult) Total() int {
	return r.Users + r.Posts + r.Messages + r.Notifications
}

// Export serializes the full current state into a text blob suitable
// for copy and paste into another instance.
func (s *Store) Export(ctx context.Context) (string, error) {
	span, _ := observability.NewSpan(ctx, "store.export")
	defer span.End()

	data, err := json.Marshal(s.State().Snapshot())
	if err != nil {
		span.SetError(err)
		return "", models.NewInternalError(err)
	}
	sum := blake2b.Sum256(data)
	raw, err := json.Marshal(envelope{
		Version:  transferVersion,
		Checksum: hex.EncodeToString(sum[:]),
		Data:     data,
	})
	if err != nil {
		span.SetError(err)
		return "", models.NewInternalError(err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeTransfer parses an export blob. An empty blob yields a nil
// snapshot and no error.
func DecodeTransfer(blob string) (*models.Snapshot, error) {
	blob = strings.TrimSpace(blob)
	if blob == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, models.NewImportParseError(err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, models.NewImportParseError(err)
	}
	if env.Version != transferVersion {
		return nil, models.NewImportParseError(fmt.Errorf("unsupported version %d", env.Version))
	}
	sum := blake2b.Sum256(env.Data)
	if hex.EncodeToString(sum[:]) != env.Checksum {
		return nil, models.NewImportParseError(errors.New("checksum mismatch"))
	}
	var snap models.Snapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		return nil, models.NewImportParseError(err)
	}
	return &snap, nil
}

// Import merges an exported blob into the local state. Entities whose id
// already exists locally are skipped and new ones are appended in
// incoming order, all in a single transition. Malformed input returns an
// IMPORT_PARSE_ERROR and leaves the state untouched; an empty blob is a
// zero result.
func (s *Store) Import(ctx context.Context, blob string) (ImportResult, error) {
	snap, err := DecodeTransfer(blob)
	if err != nil {
		observability.ImportFailures.Inc()
		s.log.LogError(ctx, err, "import")
		return ImportResult{}, err
	}
	if snap == nil {
		return ImportResult{}, nil
	}

	var res ImportResult
	err = s.commit(ctx, "import", func(next *State) (bool, error) {
		res = merge(next, snap)
		return res.Total() > 0, nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	observability.ImportedEntities.WithLabelValues("users").Add(float64(res.Users))
	observability.ImportedEntities.WithLabelValues("posts").Add(float64(res.Posts))
	observability.ImportedEntities.WithLabelValues("messages").Add(float64(res.Messages))
	observability.ImportedEntities.WithLabelValues("notifications").Add(float64(res.Notifications))
	return res, nil
}

// merge appends every incoming entity with an unseen id to next. Local
// records are never modified. An incoming user whose username is taken
// locally by a different id is dropped together with everything that
// user authored, sent or received.
func merge(next *State, in *models.Snapshot) ImportResult {
	var res ImportResult

	local := make(map[string]bool, len(next.Users))
	usernames := make(map[string]bool, len(next.Users))
	for _, u := range next.Users {
		local[u.ID] = true
		usernames[u.Username] = true
	}

	rejected := make(map[string]bool)
	appended := make(map[string]int)
	for _, u := range in.Users {
		if local[u.ID] {
			continue
		}
		if usernames[u.Username] {
			if _, ok := appended[u.ID]; !ok {
				rejected[u.ID] = true
			}
			continue
		}
		if _, dup := appended[u.ID]; dup {
			continue
		}
		appended[u.ID] = len(next.Users)
		usernames[u.Username] = true
		next.Users = append(next.Users, u.Clone())
		res.Users++
	}
	reconcileFollows(next, in, appended)

	postIDs := make(map[string]bool, len(next.Posts))
	for _, p := range next.Posts {
		postIDs[p.ID] = true
	}
	for _, p := range in.Posts {
		if postIDs[p.ID] || rejected[p.UserID] {
			continue
		}
		postIDs[p.ID] = true
		next.Posts = append(next.Posts, withoutAuthors(normalizePost(p), rejected))
		res.Posts++
	}

	msgIDs := make(map[string]bool, len(next.Messages))
	for _, m := range next.Messages {
		msgIDs[m.ID] = true
	}
	for _, m := range in.Messages {
		if msgIDs[m.ID] || rejected[m.SenderID] || rejected[m.RecipientID] {
			continue
		}
		msgIDs[m.ID] = true
		next.Messages = append(next.Messages, m)
		res.Messages++
	}

	notifIDs := make(map[string]bool, len(next.Notifications))
	for _, n := range next.Notifications {
		notifIDs[n.ID] = true
	}
	for _, n := range in.Notifications {
		if notifIDs[n.ID] || rejected[n.ActorID] || rejected[n.RecipientID] {
			continue
		}
		notifIDs[n.ID] = true
		next.Notifications = append(next.Notifications, n)
		res.Notifications++
	}
	return res
}

// withoutAuthors strips likes and comments by rejected users from p.
func withoutAuthors(p models.Post, rejected map[string]bool) models.Post {
	if len(rejected) == 0 {
		return p
	}
	likes := p.Likes[:0]
	for _, id := range p.Likes {
		if !rejected[id] {
			likes = append(likes, id)
		}
	}
	p.Likes = likes
	comments := p.Comments[:0]
	for _, c := range p.Comments {
		if !rejected[c.UserID] {
			comments = append(comments, c)
		}
	}
	p.Comments = comments
	return p
}

// reconcileFollows rebuilds the follow sets of appended users so that
// following and followers stay mutual inverses. Edges between two
// appended users are kept when either side records them. Edges touching
// a local user are kept only when the local side already records them.
func reconcileFollows(next *State, in *models.Snapshot, appended map[string]int) {
	if len(appended) == 0 {
		return
	}
	type edge struct{ from, to string }
	var edges []edge
	seen := make(map[edge]bool)
	add := func(e edge) {
		if e.from == e.to || seen[e] {
			return
		}
		seen[e] = true
		edges = append(edges, e)
	}

	for _, u := range in.Users {
		if _, ok := appended[u.ID]; !ok {
			continue
		}
		for _, id := range u.Following {
			if _, ok := appended[id]; ok {
				add(edge{u.ID, id})
			}
		}
		for _, id := range u.Followers {
			if _, ok := appended[id]; ok {
				add(edge{id, u.ID})
			}
		}
	}
	for _, lu := range next.Users {
		if _, ok := appended[lu.ID]; ok {
			continue
		}
		for _, id := range lu.Followers {
			if _, ok := appended[id]; ok {
				add(edge{id, lu.ID})
			}
		}
		for _, id := range lu.Following {
			if _, ok := appended[id]; ok {
				add(edge{lu.ID, id})
			}
		}
	}

	for _, i := range appended {
		next.Users[i].Following = []string{}
		next.Users[i].Followers = []string{}
	}
	for _, e := range edges {
		if i, ok := appended[e.from]; ok {
			next.Users[i].Following = append(next.Users[i].Following, e.to)
		}
		if i, ok := appended[e.to]; ok {
			next.Users[i].Followers = append(next.Users[i].Followers, e.from)
		}
	}
}
