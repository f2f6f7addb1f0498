// Package workspaces holds the workspace model, its API token auth and
// the catalog entities the workspace dashboard labels its rollups with.
package workspaces

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a workspace does not exist.
	ErrNotFound = errors.New("workspace not found")
	// ErrInvalidToken is returned for malformed or non-matching API tokens.
	ErrInvalidToken = errors.New("invalid api token")
)

// Workspace is a tenant. Interactive auth lives in the external frontend;
// API access uses a bearer token whose secret is stored as a bcrypt hash.
type Workspace struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Slug         string    `gorm:"uniqueIndex;not null" json:"slug"`
	APITokenHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Asset is an uploaded file shared from the workspace.
type Asset struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	WorkspaceID uint      `gorm:"index;not null" json:"workspace_id"`
	Filename    string    `gorm:"not null" json:"filename"`
	CreatedAt   time.Time `json:"created_at"`
}

// ShortLink is a trackable short link pointing at a document or asset.
type ShortLink struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	WorkspaceID uint      `gorm:"index;not null" json:"workspace_id"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Target      string    `gorm:"not null" json:"target"`
	CreatedAt   time.Time `json:"created_at"`
}

// Collection groups documents and assets into one shareable page.
type Collection struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	WorkspaceID uint      `gorm:"index;not null" json:"workspace_id"`
	Name        string    `gorm:"not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	CreatedAt   time.Time `json:"created_at"`
}

// tokenPrefix namespaces pagelink tokens so they are recognizable in
// configs and logs: pl_<workspace id>_<secret>.
const tokenPrefix = "pl"

// GenerateAPIToken mints a token for the workspace and stores its hash.
// The plaintext token is returned once and never persisted.
func GenerateAPIToken(db *gorm.DB, workspaceID uint) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("error generating token secret: %w", err)
	}
	secret := hex.EncodeToString(buf)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("error hashing token secret: %w", err)
	}

	err = db.Model(&Workspace{}).Where("id = ?", workspaceID).
		Update("api_token_hash", string(hash)).Error
	if err != nil {
		return "", fmt.Errorf("error storing token hash: %w", err)
	}

	return fmt.Sprintf("%s_%d_%s", tokenPrefix, workspaceID, secret), nil
}

// Authenticate resolves a bearer token to its workspace. The workspace id
// is carried in the token so only one bcrypt comparison is needed.
func Authenticate(db *gorm.DB, token string) (*Workspace, error) {
	parts := strings.SplitN(token, "_", 3)
	if len(parts) != 3 || parts[0] != tokenPrefix {
		return nil, ErrInvalidToken
	}

	id, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var workspace Workspace
	if err := db.First(&workspace, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching workspace %d: %w", id, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(workspace.APITokenHash), []byte(parts[2])) != nil {
		return nil, ErrInvalidToken
	}

	return &workspace, nil
}

// AssetsByID loads assets for a set of ids. Missing rows are simply
// absent from the result map.
func AssetsByID(db *gorm.DB, ids []uint) (map[uint]Asset, error) {
	out := make(map[uint]Asset, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []Asset
	if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error fetching assets: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func LinksByID(db *gorm.DB, ids []uint) (map[uint]ShortLink, error) {
	out := make(map[uint]ShortLink, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []ShortLink
	if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error fetching short links: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func CollectionsByID(db *gorm.DB, ids []uint) (map[uint]Collection, error) {
	out := make(map[uint]Collection, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []Collection
	if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error fetching collections: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}
