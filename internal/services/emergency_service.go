package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink/internal/models"
	"github.com/bloodlink/bloodlink/internal/realtime"
	"github.com/bloodlink/bloodlink/pkg/blood"
	apperrors "github.com/bloodlink/bloodlink/pkg/errors"
	"github.com/bloodlink/bloodlink/pkg/metrics"
)

// EmergencyPostDTO is the API-friendly emergency post payload.
type EmergencyPostDTO struct {
	ID             string             `json:"id"`
	PostedBy       string             `json:"posted_by"`
	PosterName     string             `json:"poster_name,omitempty"`
	PosterRole     string             `json:"poster_role,omitempty"`
	BloodGroup     string             `json:"blood_group"`
	Quantity       int                `json:"quantity"`
	Location       string             `json:"location"`
	UrgencyLevel   string             `json:"urgency_level"`
	Description    string             `json:"description,omitempty"`
	ContactPhone   string             `json:"contact_phone"`
	Status         string             `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
	Participations []ParticipationDTO `json:"participations,omitempty"`
}

// SubmitEmergencyInput carries a new request through the submission flow.
type SubmitEmergencyInput struct {
	PosterID     string
	PosterRole   string
	BloodGroup   string
	Quantity     int
	Location     string
	UrgencyLevel string
	Description  string
	ContactPhone string
}

// SubmitResult reports the outcome of the submission flow. Exactly one of
// Matches or Post is populated: matches mean no post was created and the
// caller decides whether to post anyway.
type SubmitResult struct {
	State   WorkflowState       `json:"state"`
	Matches []AvailabilityMatch `json:"matches,omitempty"`
	Post    *EmergencyPostDTO   `json:"post,omitempty"`
}

// ListActiveInput filters the public feed of active posts.
type ListActiveInput struct {
	BloodGroup string
	City       string
	Urgency    string

	// When set, the feed keeps only posts a donor with this blood type can give to.
	DonorBloodType string

	Limit  int
	Offset int
}

// EmergencyService drives the request submission workflow and post CRUD.
type EmergencyService struct {
	db        *gorm.DB
	inventory *InventoryService
	hub       *realtime.Hub
}

// NewEmergencyService constructs an EmergencyService.
func NewEmergencyService(db *gorm.DB, inventory *InventoryService, hub *realtime.Hub) (*EmergencyService, error) {
	if db == nil {
		return nil, errors.New("emergency service: db is required")
	}
	if inventory == nil {
		return nil, errors.New("emergency service: inventory service is required")
	}
	return &EmergencyService{db: db, inventory: inventory, hub: hub}, nil
}

// Submit runs the submission flow for the poster's role. Hospitals get an
// availability check first; blood banks post directly.
func (s *EmergencyService) Submit(ctx context.Context, input SubmitEmergencyInput) (*SubmitResult, error) {
	ctx = ensureContext(ctx)

	if err := validateSubmitInput(&input); err != nil {
		return nil, err
	}

	event := EventSubmitHospital
	if input.PosterRole == models.RoleBloodBank {
		event = EventSubmitBloodBank
	}

	state, effect, err := advance(StateDrafting, event)
	if err != nil {
		return nil, fmt.Errorf("emergency service: %w", err)
	}

	if effect == EffectCreatePost {
		post, err := s.createPost(ctx, input)
		if err != nil {
			return nil, err
		}
		return &SubmitResult{State: state, Post: post}, nil
	}

	matches, err := s.inventory.FindAvailability(ctx, input.BloodGroup, input.Quantity)
	if err != nil {
		return nil, err
	}

	checkEvent := EventNoMatches
	if len(matches) > 0 {
		checkEvent = EventMatchesFound
	}

	state, effect, err = advance(state, checkEvent)
	if err != nil {
		return nil, fmt.Errorf("emergency service: %w", err)
	}

	if effect == EffectReturnMatches {
		return &SubmitResult{State: state, Matches: matches}, nil
	}

	post, err := s.createPost(ctx, input)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{State: state, Post: post}, nil
}

// PostAnyway creates the post after the poster declined the offered matches.
func (s *EmergencyService) PostAnyway(ctx context.Context, input SubmitEmergencyInput) (*SubmitResult, error) {
	ctx = ensureContext(ctx)

	if err := validateSubmitInput(&input); err != nil {
		return nil, err
	}

	state, _, err := advance(StateAvailabilityFound, EventPostAnyway)
	if err != nil {
		return nil, fmt.Errorf("emergency service: %w", err)
	}

	post, err := s.createPost(ctx, input)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{State: state, Post: post}, nil
}

func (s *EmergencyService) createPost(ctx context.Context, input SubmitEmergencyInput) (*EmergencyPostDTO, error) {
	post := models.EmergencyPost{
		PostedBy:     input.PosterID,
		BloodGroup:   input.BloodGroup,
		Quantity:     input.Quantity,
		Location:     input.Location,
		UrgencyLevel: input.UrgencyLevel,
		Description:  strings.TrimSpace(input.Description),
		ContactPhone: strings.TrimSpace(input.ContactPhone),
		Status:       models.PostStatusActive,
	}

	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, fmt.Errorf("emergency service: create post: %w", err)
	}

	metrics.EmergencyPosts.WithLabelValues(input.PosterRole).Inc()

	dto := mapEmergencyPost(post, nil)
	if s.hub != nil {
		s.hub.BroadcastStream(realtime.StreamEmergencyPosts,
			realtime.Change(realtime.StreamEmergencyPosts, realtime.EventInsert, dto))
	}
	return &dto, nil
}

// Get loads a single post with its poster attached.
func (s *EmergencyService) Get(ctx context.Context, postID string) (*EmergencyPostDTO, error) {
	ctx = ensureContext(ctx)
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return nil, errors.New("emergency service: post id is required")
	}

	var post models.EmergencyPost
	err := s.db.WithContext(ctx).Take(&post, "id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("emergency service: load post: %w", err)
	}

	dto := mapEmergencyPost(post, s.lookupProfile(ctx, post.PostedBy))
	return &dto, nil
}

// ListActive returns the public feed of active posts, newest first.
func (s *EmergencyService) ListActive(ctx context.Context, input ListActiveInput) ([]EmergencyPostDTO, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).
		Model(&models.EmergencyPost{}).
		Where("status = ?", models.PostStatusActive)

	if raw := strings.TrimSpace(input.BloodGroup); raw != "" {
		group, err := blood.Parse(raw)
		if err != nil {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown blood group %q", raw))
		}
		query = query.Where("blood_group = ?", group.String())
	}
	if city := strings.TrimSpace(input.City); city != "" {
		query = query.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(city)+"%")
	}
	if urgency := strings.TrimSpace(input.Urgency); urgency != "" {
		if !models.ValidUrgency(urgency) {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown urgency level %q", urgency))
		}
		query = query.Where("urgency_level = ?", urgency)
	}

	if raw := strings.TrimSpace(input.DonorBloodType); raw != "" {
		donorType, err := blood.Parse(raw)
		if err != nil {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown donor blood type %q", raw))
		}
		recipients := donorType.Recipients()
		groups := make([]string, 0, len(recipients))
		for _, g := range recipients {
			groups = append(groups, g.String())
		}
		query = query.Where("blood_group IN ?", groups)
	}

	var posts []models.EmergencyPost
	if err := query.
		Order("created_at DESC").
		Limit(clampLimit(input.Limit, 50, 200)).
		Offset(normaliseOffset(input.Offset)).
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("emergency service: list active posts: %w", err)
	}

	return s.attachPosters(ctx, posts), nil
}

// ListForPoster returns the user's own posts with volunteer responses attached.
func (s *EmergencyService) ListForPoster(ctx context.Context, posterID string) ([]EmergencyPostDTO, error) {
	ctx = ensureContext(ctx)
	posterID = strings.TrimSpace(posterID)
	if posterID == "" {
		return nil, errors.New("emergency service: poster id is required")
	}

	var posts []models.EmergencyPost
	if err := s.db.WithContext(ctx).
		Preload("Participations", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where("posted_by = ?", posterID).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("emergency service: list own posts: %w", err)
	}

	dtos := make([]EmergencyPostDTO, 0, len(posts))
	for _, post := range posts {
		dtos = append(dtos, mapEmergencyPost(post, nil))
	}
	return dtos, nil
}

// UpdateStatus transitions a post the user owns to a new status.
func (s *EmergencyService) UpdateStatus(ctx context.Context, postID, posterID, status string) error {
	ctx = ensureContext(ctx)

	switch status {
	case models.PostStatusActive, models.PostStatusClosed, models.PostStatusExpired:
	default:
		return apperrors.NewBadRequest(fmt.Sprintf("unknown post status %q", status))
	}

	result := s.db.WithContext(ctx).
		Model(&models.EmergencyPost{}).
		Where("id = ? AND posted_by = ?", postID, posterID).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("emergency service: update status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}

	if s.hub != nil {
		s.hub.BroadcastStream(realtime.StreamEmergencyPosts,
			realtime.Change(realtime.StreamEmergencyPosts, realtime.EventUpdate,
				map[string]string{"id": postID, "status": status}))
	}
	return nil
}

// Delete removes a post the user owns along with its participations.
func (s *EmergencyService) Delete(ctx context.Context, postID, posterID string) error {
	ctx = ensureContext(ctx)

	postID = strings.TrimSpace(postID)
	posterID = strings.TrimSpace(posterID)
	if postID == "" || posterID == "" {
		return errors.New("emergency service: post id and poster id are required")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.EmergencyPost
		err := tx.Take(&post, "id = ? AND posted_by = ?", postID, posterID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		if err != nil {
			return err
		}

		// Participations reference the post, so they go first.
		if err := tx.Where("emergency_id = ?", postID).
			Delete(&models.Participation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.EmergencyPost{}, "id = ?", postID).Error
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("emergency service: delete post: %w", err)
	}

	if s.hub != nil {
		s.hub.BroadcastStream(realtime.StreamEmergencyPosts,
			realtime.Change(realtime.StreamEmergencyPosts, realtime.EventDelete,
				map[string]string{"id": postID}))
	}
	return nil
}

// ExpireOlderThan closes active posts created before the cutoff. Used by the
// maintenance cleaner.
func (s *EmergencyService) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Model(&models.EmergencyPost{}).
		Where("status = ? AND created_at < ?", models.PostStatusActive, cutoff).
		Update("status", models.PostStatusExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("emergency service: expire posts: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *EmergencyService) attachPosters(ctx context.Context, posts []models.EmergencyPost) []EmergencyPostDTO {
	ids := make([]string, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.PostedBy)
	}

	profiles := make(map[string]models.Profile, len(ids))
	if len(ids) > 0 {
		var rows []models.Profile
		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err == nil {
			for _, row := range rows {
				profiles[row.ID] = row
			}
		}
	}

	dtos := make([]EmergencyPostDTO, 0, len(posts))
	for _, post := range posts {
		var profile *models.Profile
		if p, ok := profiles[post.PostedBy]; ok {
			profile = &p
		}
		dtos = append(dtos, mapEmergencyPost(post, profile))
	}
	return dtos
}

func (s *EmergencyService) lookupProfile(ctx context.Context, userID string) *models.Profile {
	var profile models.Profile
	if err := s.db.WithContext(ctx).Take(&profile, "id = ?", userID).Error; err != nil {
		return nil
	}
	return &profile
}

func validateSubmitInput(input *SubmitEmergencyInput) error {
	input.PosterID = strings.TrimSpace(input.PosterID)
	if input.PosterID == "" {
		return errors.New("emergency service: poster id is required")
	}
	if input.PosterRole != models.RoleHospital && input.PosterRole != models.RoleBloodBank {
		return apperrors.ErrForbidden
	}

	group, err := blood.Parse(input.BloodGroup)
	if err != nil {
		return apperrors.NewBadRequest(fmt.Sprintf("unknown blood group %q", input.BloodGroup))
	}
	input.BloodGroup = group.String()

	if input.Quantity <= 0 {
		return apperrors.NewBadRequest("quantity must be positive")
	}
	input.Location = strings.TrimSpace(input.Location)
	if input.Location == "" {
		return apperrors.NewBadRequest("location is required")
	}
	if !models.ValidUrgency(input.UrgencyLevel) {
		return apperrors.NewBadRequest(fmt.Sprintf("unknown urgency level %q", input.UrgencyLevel))
	}
	if strings.TrimSpace(input.ContactPhone) == "" {
		return apperrors.NewBadRequest("contact phone is required")
	}
	return nil
}

func mapEmergencyPost(post models.EmergencyPost, poster *models.Profile) EmergencyPostDTO {
	dto := EmergencyPostDTO{
		ID:           post.ID,
		PostedBy:     post.PostedBy,
		BloodGroup:   post.BloodGroup,
		Quantity:     post.Quantity,
		Location:     post.Location,
		UrgencyLevel: post.UrgencyLevel,
		Description:  post.Description,
		ContactPhone: post.ContactPhone,
		Status:       post.Status,
		CreatedAt:    post.CreatedAt,
	}
	if poster != nil {
		dto.PosterName = poster.DisplayName()
		dto.PosterRole = poster.Role
	}
	if len(post.Participations) > 0 {
		dto.Participations = make([]ParticipationDTO, 0, len(post.Participations))
		for _, p := range post.Participations {
			dto.Participations = append(dto.Participations, mapParticipation(p))
		}
	}
	return dto
}
