package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"EditaisScanner/internal/domain"
	"EditaisScanner/internal/ports"
)

// JSONStore keeps the accepted set in a single JSON array file.
type JSONStore struct {
	path string
	base *url.URL
}

var _ ports.NoticeStore = (*JSONStore)(nil)

// NewJSONStore points the store at path; the file need not exist yet.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// ResolveAgainst makes Load turn relative stored links into absolute ones
// against listingURL, the same way the listing scanner resolves hrefs. Earlier
// versions of the bot saved hrefs verbatim. An unparsable listingURL leaves
// links untouched.
func (s *JSONStore) ResolveAgainst(listingURL string) *JSONStore {
	base, err := url.Parse(strings.TrimSpace(listingURL))
	if err != nil || !base.IsAbs() {
		s.base = nil
		return s
	}
	s.base = base
	return s
}

// record also accepts the "titulo" key written by earlier versions of the bot.
type record struct {
	Title  string `json:"title"`
	Link   string `json:"link"`
	Titulo string `json:"titulo,omitempty"`
}

// Load reads the accepted set. A missing file is an empty set; anything
// unreadable is a *domain.StoreCorruptError.
func (s *JSONStore) Load(ctx context.Context) (*domain.AcceptedSet, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.NewAcceptedSet(), nil
		}
		return nil, fmt.Errorf("read accepted set: %w", err)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &domain.StoreCorruptError{Location: s.path, Err: errors.New("file is empty")}
	}

	var records []record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, &domain.StoreCorruptError{Location: s.path, Err: err}
	}
	if records == nil {
		return nil, &domain.StoreCorruptError{Location: s.path, Err: errors.New("state is null, expected a JSON array")}
	}

	set := domain.NewAcceptedSet()
	for i, r := range records {
		if strings.TrimSpace(r.Link) == "" {
			return nil, &domain.StoreCorruptError{Location: s.path, Err: fmt.Errorf("record %d has no link", i)}
		}
		title := r.Title
		if title == "" {
			title = r.Titulo
		}
		set.Append(domain.Notice{Title: title, Link: s.resolve(r.Link)})
	}
	return set, nil
}

func (s *JSONStore) resolve(link string) string {
	link = strings.TrimSpace(link)
	if s.base == nil {
		return link
	}
	ref, err := url.Parse(link)
	if err != nil {
		return link
	}
	return s.base.ResolveReference(ref).String()
}

// Save overwrites the file with the whole set: temp file, fsync, rename.
func (s *JSONStore) Save(ctx context.Context, set *domain.AcceptedSet) error {
	notices := set.Notices()
	if notices == nil {
		notices = []domain.Notice{}
	}

	data, err := json.MarshalIndent(notices, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal accepted set: %w", err)
	}
	data = append(data, '\n')

	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write accepted set: %w", err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
