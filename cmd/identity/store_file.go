package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"tunebox/cmd/identity/ids"
)

// Hasher turns a plaintext password into a stored hash.
type Hasher interface {
	Hash(password string) (string, error)
}

// FileStoreOptions configures a FileStore.
type FileStoreOptions struct {
	// Path is the JSON document location. Its directory is created on first write.
	Path string

	// StrictRead makes mutations fail with ErrStoreRead on an unreadable
	// document instead of starting over from an empty one.
	StrictRead bool

	Hasher Hasher
	Logger *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// FileStore keeps all users in a single JSON document on disk.
type FileStore struct {
	path   string
	strict bool
	hasher Hasher
	log    *slog.Logger
	now    func() time.Time

	// mu covers the whole load, check, modify, persist span of every mutation.
	// Lookups never take it.
	mu sync.Mutex

	// writeFile replaces the document at path. Tests swap it to inject failures.
	writeFile func(path string, data []byte) error
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store backed by opts.Path. The file need not exist.
func NewFileStore(opts FileStoreOptions) (*FileStore, error) {
	if strings.TrimSpace(opts.Path) == "" {
		return nil, errors.New("identity: file store path is required")
	}
	if opts.Hasher == nil {
		return nil, errors.New("identity: file store hasher is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &FileStore{
		path:      opts.Path,
		strict:    opts.StrictRead,
		hasher:    opts.Hasher,
		log:       opts.Logger,
		now:       opts.Now,
		writeFile: writeFileAtomic,
	}, nil
}

// Path returns the document location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) FindByEmail(ctx context.Context, email string) (User, bool, error) {
	return s.find(ctx, "identity.find_by_email", func(d *document) int { return d.indexByEmail(email) })
}

func (s *FileStore) FindByUsername(ctx context.Context, username string) (User, bool, error) {
	return s.find(ctx, "identity.find_by_username", func(d *document) int { return d.indexByUsername(username) })
}

func (s *FileStore) FindByID(ctx context.Context, id string) (User, bool, error) {
	return s.find(ctx, "identity.find_by_id", func(d *document) int { return d.indexByID(id) })
}

func (s *FileStore) find(ctx context.Context, op string, index func(*document) int) (User, bool, error) {
	if err := ctx.Err(); err != nil {
		return User{}, false, err
	}
	doc := s.read(op)
	i := index(&doc)
	if i < 0 {
		return User{}, false, nil
	}
	return doc.Users[i].user(), true, nil
}

func (s *FileStore) CreateLocal(ctx context.Context, username, email, password string) (User, error) {
	const op = "identity.create_local"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return User{}, err
	}

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	var created record
	err = s.mutate(ctx, op, func(doc *document) (bool, error) {
		if doc.indexByEmail(email) >= 0 {
			return false, ConflictError{Op: op, Field: FieldEmail}
		}
		if doc.indexByUsername(username) >= 0 {
			return false, ConflictError{Op: op, Field: FieldUsername}
		}

		rec, err := s.newRecord(op, username, email)
		if err != nil {
			return false, err
		}
		rec.PasswordHash = &hash

		doc.Users = append(doc.Users, rec)
		created = rec
		return true, nil
	})
	if err != nil {
		return User{}, err
	}

	s.log.Info("store.user.created", "user_id", created.ID, "kind", "local")
	return created.user(), nil
}

func (s *FileStore) UpsertFederated(ctx context.Context, in FederatedInput) (User, error) {
	const op = "identity.upsert_federated"

	email := strings.TrimSpace(in.Email)
	if email == "" {
		return User{}, ValidationError{Op: op, Field: FieldEmail, Msg: "missing"}
	}

	var (
		out     record
		created bool
	)
	err := s.mutate(ctx, op, func(doc *document) (bool, error) {
		if i := doc.indexByEmail(email); i >= 0 {
			rec := &doc.Users[i]
			changed := false
			if rec.ExternalID == nil {
				if ext := optionalString(in.ExternalID); ext != nil {
					rec.ExternalID = ext
					changed = true
				}
			}
			out = *rec
			return changed, nil
		}

		name := deriveUsername(in.DisplayName, email, func(candidate string) bool {
			return doc.indexByUsername(candidate) >= 0
		})
		rec, err := s.newRecord(op, name, email)
		if err != nil {
			return false, err
		}
		rec.ExternalID = optionalString(in.ExternalID)
		rec.AvatarURL = optionalString(in.AvatarURL)

		doc.Users = append(doc.Users, rec)
		out = rec
		created = true
		return true, nil
	})
	if err != nil {
		return User{}, err
	}

	if created {
		s.log.Info("store.user.created", "user_id", out.ID, "kind", "federated")
	}
	return out.user(), nil
}

func (s *FileStore) UpdateProfile(ctx context.Context, id, username, email string) (User, error) {
	const op = "identity.update_profile"

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	var out record
	err := s.mutate(ctx, op, func(doc *document) (bool, error) {
		self := doc.indexByID(id)
		if self < 0 {
			return false, NotFoundError{Op: op, Resource: "user"}
		}
		if takenByOther(doc.indexByEmail(email), self) {
			return false, ConflictError{Op: op, Field: FieldEmail}
		}
		if takenByOther(doc.indexByUsername(username), self) {
			return false, ConflictError{Op: op, Field: FieldUsername}
		}

		rec := &doc.Users[self]
		rec.Username = username
		rec.Email = email
		out = *rec
		return true, nil
	})
	if err != nil {
		return User{}, err
	}
	return out.user(), nil
}

func (s *FileStore) UpdatePassword(ctx context.Context, id, password string) error {
	const op = "identity.update_password"

	if err := ctx.Err(); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	return s.mutate(ctx, op, func(doc *document) (bool, error) {
		i := doc.indexByID(id)
		if i < 0 {
			return false, NotFoundError{Op: op, Resource: "user"}
		}
		doc.Users[i].PasswordHash = &hash
		return true, nil
	})
}

func (s *FileStore) newRecord(op, username, email string) (record, error) {
	now := s.now().UTC()
	id, err := ids.NewULID(now)
	if err != nil {
		return record{}, OpError{Op: op, Kind: ErrStoreWrite, Msg: "generate id: " + err.Error()}
	}
	return record{
		ID:        id,
		Username:  username,
		Email:     email,
		CreatedAt: formatCreatedAt(now),
	}, nil
}

// mutate runs fn on the latest document while holding mu and persists the
// result when fn reports a change. Nothing is written if fn fails.
func (s *FileStore) mutate(ctx context.Context, op string, fn func(doc *document) (bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(op)
	if err != nil {
		if s.strict {
			s.log.Error("store.read.refused", "op", op, "path", s.path, "err", err)
			return err
		}
		s.log.Warn("store.read.corrupt", "op", op, "path", s.path, "err", err)
		doc = document{}
	}

	changed, err := fn(&doc)
	if err != nil || !changed {
		return err
	}

	if doc.Users == nil {
		doc.Users = []record{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return OpError{Op: op, Kind: ErrStoreWrite, Msg: "marshal: " + err.Error()}
	}
	if err := s.writeFile(s.path, data); err != nil {
		s.log.Error("store.write.fail", "op", op, "path", s.path, "err", err)
		return OpError{Op: op, Kind: ErrStoreWrite, Msg: err.Error()}
	}
	return nil
}

// read loads the document for a lookup. An unreadable document reads as empty.
func (s *FileStore) read(op string) document {
	doc, err := s.load(op)
	if err != nil {
		s.log.Warn("store.read.corrupt", "op", op, "path", s.path, "err", err)
		return document{}
	}
	return doc
}

// load reads and decodes the document. A missing or blank file is an empty store.
func (s *FileStore) load(op string) (document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return document{}, nil
		}
		return document{}, OpError{Op: op, Kind: ErrStoreRead, Msg: err.Error()}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return document{}, nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, OpError{Op: op, Kind: ErrStoreRead, Msg: err.Error()}
	}
	doc.upgrade()
	return doc, nil
}

// writeFileAtomic writes data to a temp file beside path, fsyncs it and
// renames it over path. On failure the previous document is left in place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("fsync: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
