package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/jun/formdesk/internal/model"
)

const folderMIMEType = "application/vnd.google-apps.folder"

// DriveStore implements Store on Google Drive: one JSON file per record,
// grouped in per-owner folders under a base archive folder.
type DriveStore struct {
	service    *drive.Service
	baseFolder string

	mu        sync.Mutex
	folderIDs map[string]string
}

// NewDriveStore builds a DriveStore from an offline OAuth2 refresh token.
// The token source refreshes access tokens transparently.
func NewDriveStore(ctx context.Context, clientID, clientSecret, refreshToken, baseFolder string) (*DriveStore, error) {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{drive.DriveFileScope},
		Endpoint:     google.Endpoint,
	}

	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-1 * time.Hour), // Force refresh
	}

	client := oauth2.NewClient(ctx, cfg.TokenSource(ctx, token))
	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive client: %w", err)
	}

	return &DriveStore{
		service:    srv,
		baseFolder: baseFolder,
		folderIDs:  make(map[string]string),
	}, nil
}

// Put writes the record as <docID>.json inside the owner's folder,
// creating folders on first use.
func (s *DriveStore) Put(ctx context.Context, path string, rec model.SavedDocumentRecord) error {
	ownerID, docID, err := splitPath(path)
	if err != nil {
		return err
	}

	folderID, err := s.ensureOwnerFolder(ctx, ownerID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	meta := &drive.File{
		Name:     docID + ".json",
		MimeType: "application/json",
		Parents:  []string{folderID},
	}

	_, err = s.service.Files.Create(meta).
		Media(bytes.NewReader(data)).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("unable to create file on Drive: %w", err)
	}
	return nil
}

// Query lists up to limit records in the owner's folder, newest-first by
// Drive creation time. A missing owner folder yields an empty result.
func (s *DriveStore) Query(ctx context.Context, ownerPrefix string, limit int) ([]model.SavedDocumentRecord, error) {
	ownerID, _, err := splitPath(ownerPrefix + "/-")
	if err != nil {
		return nil, err
	}

	folderID, err := s.findOwnerFolder(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if folderID == "" {
		return []model.SavedDocumentRecord{}, nil
	}

	q := fmt.Sprintf("'%s' in parents and trashed = false", folderID)
	list, err := s.service.Files.List().
		Q(q).
		OrderBy("createdTime desc").
		PageSize(int64(limit)).
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list files: %w", err)
	}

	records := make([]model.SavedDocumentRecord, 0, len(list.Files))
	for _, f := range list.Files {
		rec, err := s.download(ctx, f.Id)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

func (s *DriveStore) download(ctx context.Context, fileID string) (*model.SavedDocumentRecord, error) {
	resp, err := s.service.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("unable to download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read file %s: %w", fileID, err)
	}

	var rec model.SavedDocumentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("corrupt record in file %s: %w", fileID, err)
	}
	return &rec, nil
}

// ensureOwnerFolder returns the owner's folder ID, creating the base and
// owner folders if needed. IDs are cached for the store's lifetime.
func (s *DriveStore) ensureOwnerFolder(ctx context.Context, ownerID string) (string, error) {
	s.mu.Lock()
	if id, ok := s.folderIDs[ownerID]; ok {
		s.mu.Unlock()
		return id, nil
	}
	s.mu.Unlock()

	baseID, err := s.ensureFolder(ctx, s.baseFolder, "")
	if err != nil {
		return "", err
	}
	ownerFolderID, err := s.ensureFolder(ctx, ownerID, baseID)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.folderIDs[ownerID] = ownerFolderID
	s.mu.Unlock()
	return ownerFolderID, nil
}

// findOwnerFolder is like ensureOwnerFolder but never creates anything.
// Returns "" when the folder does not exist.
func (s *DriveStore) findOwnerFolder(ctx context.Context, ownerID string) (string, error) {
	s.mu.Lock()
	if id, ok := s.folderIDs[ownerID]; ok {
		s.mu.Unlock()
		return id, nil
	}
	s.mu.Unlock()

	baseID, err := s.findFolder(ctx, s.baseFolder, "")
	if err != nil || baseID == "" {
		return "", err
	}
	return s.findFolder(ctx, ownerID, baseID)
}

func (s *DriveStore) findFolder(ctx context.Context, name, parentID string) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", name, folderMIMEType)
	if parentID != "" {
		q += fmt.Sprintf(" and '%s' in parents", parentID)
	}

	list, err := s.service.Files.List().
		Q(q).
		Fields("files(id)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("unable to search for folder %q: %w", name, err)
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].Id, nil
}

func (s *DriveStore) ensureFolder(ctx context.Context, name, parentID string) (string, error) {
	id, err := s.findFolder(ctx, name, parentID)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	meta := &drive.File{
		Name:     name,
		MimeType: folderMIMEType,
	}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}

	created, err := s.service.Files.Create(meta).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create folder %q: %w", name, err)
	}
	return created.Id, nil
}
