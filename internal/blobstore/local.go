package blobstore

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

const (
	defaultContentType = "application/octet-stream"
	objectsDir         = "objects"
	metaDir            = "meta"
	tmpDir             = "tmp"
	signingKeyInfo     = "taskapi blob download url"

	// DownloadPathPrefix is the route under which signed local downloads are
	// served.
	DownloadPathPrefix = "/blobs/"
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	ContentType string            `json:"contentType"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Size        int64             `json:"size"`
}

// LocalStore keeps objects on the local filesystem and hands out HMAC-signed
// expiring download URLs served by the HTTP front-end.
type LocalStore struct {
	root       string
	baseURL    string
	signingKey []byte
	now        func() time.Time
}

// NewLocalStore creates a store rooted at root. Download URLs are built on
// baseURL. An empty secret yields a random per-process signing key.
func NewLocalStore(root, baseURL string, secret []byte) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("local blob root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	for _, dir := range []string{objectsDir, metaDir, tmpDir} {
		if err := os.MkdirAll(filepath.Join(abs, dir), 0o755); err != nil {
			return nil, err
		}
	}

	key, err := deriveSigningKey(secret)
	if err != nil {
		return nil, err
	}

	return &LocalStore{
		root:       abs,
		baseURL:    strings.TrimRight(baseURL, "/"),
		signingKey: key,
		now:        time.Now,
	}, nil
}

func deriveSigningKey(secret []byte) ([]byte, error) {
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate signing secret: %w", err)
		}
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(signingKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	return key, nil
}

// Put writes data to key via a temp file and rename, then records the
// content type and metadata in a sidecar.
func (s *LocalStore) Put(ctx context.Context, key string, data []byte, opts PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	objPath, metaPath, err := s.paths(key)
	if err != nil {
		return err
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	info, err := json.Marshal(ObjectInfo{ContentType: contentType, Metadata: opts.Metadata, Size: int64(len(data))})
	if err != nil {
		return err
	}

	if err := s.writeAtomic(objPath, data); err != nil {
		return fmt.Errorf("write object %s: %w", key, err)
	}
	if err := s.writeAtomic(metaPath, info); err != nil {
		_ = os.Remove(objPath)
		return fmt.Errorf("write object metadata %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) writeAtomic(dst string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Join(s.root, tmpDir), "put-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// PresignGet returns {baseURL}/blobs/{key}?expires={unix}&signature={hmac}.
func (s *LocalStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, _, err := s.paths(key); err != nil {
		return "", err
	}
	expires := strconv.FormatInt(s.now().Add(expiry).Unix(), 10)

	q := url.Values{}
	q.Set("expires", expires)
	q.Set("signature", s.sign(key, expires))
	return s.baseURL + DownloadPathPrefix + escapeKey(key) + "?" + q.Encode(), nil
}

// Verify checks a download request produced by PresignGet.
func (s *LocalStore) Verify(key, expires, signature string) error {
	if _, _, err := s.paths(key); err != nil {
		return err
	}
	unix, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return ErrSignature
	}
	if s.now().Unix() > unix {
		return ErrSignature
	}
	expected := s.sign(key, expires)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignature
	}
	return nil
}

// Open returns a reader for key along with its recorded attributes.
func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	var info ObjectInfo
	if err := ctx.Err(); err != nil {
		return nil, info, err
	}
	objPath, metaPath, err := s.paths(key)
	if err != nil {
		return nil, info, err
	}
	if raw, err := os.ReadFile(metaPath); err == nil {
		if err := json.Unmarshal(raw, &info); err != nil {
			return nil, info, fmt.Errorf("decode object metadata %s: %w", key, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, info, err
	}
	if info.ContentType == "" {
		info.ContentType = defaultContentType
	}
	f, err := os.Open(objPath)
	if err != nil {
		return nil, info, err
	}
	return f, info, nil
}

// Delete removes an object and its sidecar. Missing files are ignored.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	objPath, metaPath, err := s.paths(key)
	if err != nil {
		return err
	}
	for _, path := range []string{objPath, metaPath} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (s *LocalStore) sign(key, expires string) string {
	mac := hmac.New(sha256.New, s.signingKey)
	mac.Write([]byte(key))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(expires))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *LocalStore) paths(key string) (string, string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return "", "", err
	}
	obj := filepath.Join(s.root, objectsDir, clean)
	meta := filepath.Join(s.root, metaDir, clean+".json")
	return obj, meta, nil
}

func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return clean, nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
