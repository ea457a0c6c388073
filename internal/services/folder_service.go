package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/models"
)

// ErrFolderNameRequired rejects blank folder names.
var ErrFolderNameRequired = errors.New("folder name is required")

// FolderService manages the user's folder hierarchy. The tree is kept
// acyclic by validating every move against the destination's ancestor
// chain before any mutation.
type FolderService struct {
	db     core.DbClient
	logger *log.Logger
}

func NewFolderService(db core.DbClient, logger *log.Logger) *FolderService {
	return &FolderService{db: db, logger: logger}
}

// Create adds a folder, at root or under an existing parent owned by the
// same user.
func (s *FolderService) Create(ctx context.Context, userID, name, color string, parentID *string) (*models.DocumentFolder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrFolderNameRequired
	}
	if parentID != nil {
		if _, err := s.get(ctx, userID, *parentID); err != nil {
			return nil, err
		}
	}

	folder := &models.DocumentFolder{
		ID:       uuid.NewString(),
		UserID:   userID,
		Name:     name,
		ParentID: parentID,
		Color:    color,
	}
	if err := s.db.CreateFolder(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// Update renames and/or recolors a folder. Nil fields are left untouched.
func (s *FolderService) Update(ctx context.Context, userID, folderID string, name, color *string) (*models.DocumentFolder, error) {
	if _, err := s.get(ctx, userID, folderID); err != nil {
		return nil, err
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, ErrFolderNameRequired
		}
		name = &trimmed
	}
	if err := s.db.UpdateFolder(ctx, folderID, name, color); err != nil {
		return nil, err
	}
	return s.db.GetFolderByID(ctx, folderID)
}

// Move reparents a folder. nil parentID moves it to root. A move into the
// folder itself or into any of its descendants is rejected before any
// write happens.
func (s *FolderService) Move(ctx context.Context, userID, folderID string, parentID *string) error {
	if _, err := s.get(ctx, userID, folderID); err != nil {
		return err
	}
	if parentID != nil {
		if folderID == *parentID {
			return &core.FolderCycleError{FolderID: folderID, TargetID: *parentID}
		}
		if _, err := s.get(ctx, userID, *parentID); err != nil {
			return err
		}
		// The destination's ancestor chain must not contain the folder
		// being moved, or the move would orphan a subtree into a cycle.
		chain, err := s.db.GetFolderBreadcrumb(ctx, *parentID)
		if err != nil {
			return err
		}
		for _, ancestor := range chain {
			if ancestor.ID == folderID {
				return &core.FolderCycleError{FolderID: folderID, TargetID: *parentID}
			}
		}
	}
	return s.db.SetFolderParent(ctx, folderID, parentID)
}

// Delete removes a folder. Subfolders cascade away with it; documents
// inside any deleted folder survive and fall back to root.
func (s *FolderService) Delete(ctx context.Context, userID, folderID string) error {
	if _, err := s.get(ctx, userID, folderID); err != nil {
		return err
	}
	return s.db.DeleteFolder(ctx, folderID)
}

// Tree returns the user's full folder hierarchy as nested nodes.
func (s *FolderService) Tree(ctx context.Context, userID string) ([]*models.FolderTreeNode, error) {
	rows, err := s.db.GetFolderTree(ctx, userID)
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]*models.FolderTreeNode, len(rows))
	roots := make([]*models.FolderTreeNode, 0)

	// Rows arrive depth-first (parents before children), so a single pass
	// can attach every node to an already-built parent.
	for _, row := range rows {
		node := &models.FolderTreeNode{DocumentFolder: row.DocumentFolder, Children: []*models.FolderTreeNode{}}
		nodes[row.ID] = node
		if row.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*row.ParentID]
		if !ok {
			s.logger.Warn().Str("folder_id", row.ID).Msg("tree row arrived before its parent, attaching at root")
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots, nil
}

// Breadcrumb returns the ancestor chain for a folder, root first, ending
// with the folder itself.
func (s *FolderService) Breadcrumb(ctx context.Context, userID, folderID string) ([]models.DocumentFolder, error) {
	if _, err := s.get(ctx, userID, folderID); err != nil {
		return nil, err
	}
	return s.db.GetFolderBreadcrumb(ctx, folderID)
}

// Contents lists one folder level: immediate subfolders, a page of the
// documents directly inside it, and the breadcrumb. folderID nil means
// root level, which has no folder record and no breadcrumb.
func (s *FolderService) Contents(ctx context.Context, userID string, folderID *string, limit, offset int) (*models.FolderContents, error) {
	if limit <= 0 {
		limit = 50
	}
	out := &models.FolderContents{
		Subfolders: []models.DocumentFolder{},
		Documents:  []models.Document{},
		Breadcrumb: []models.DocumentFolder{},
	}

	if folderID != nil {
		folder, err := s.get(ctx, userID, *folderID)
		if err != nil {
			return nil, err
		}
		out.Folder = folder
		crumb, err := s.db.GetFolderBreadcrumb(ctx, *folderID)
		if err != nil {
			return nil, err
		}
		out.Breadcrumb = crumb
	}

	subs, err := s.db.ListSubfolders(ctx, userID, folderID)
	if err != nil {
		return nil, err
	}
	if subs != nil {
		out.Subfolders = subs
	}

	filter := core.DocumentFilter{Limit: limit, Offset: offset}
	if folderID == nil {
		filter.RootOnly = true
	} else {
		filter.FolderID = folderID
	}
	docs, total, err := s.db.ListDocuments(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if docs != nil {
		out.Documents = docs
	}
	out.Total = total
	return out, nil
}

func (s *FolderService) get(ctx context.Context, userID, folderID string) (*models.DocumentFolder, error) {
	folder, err := s.db.GetFolderByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if folder.UserID != userID {
		return nil, core.ErrFolderNotFound
	}
	return folder, nil
}
