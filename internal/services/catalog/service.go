package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mcoot/paradox/internal/dependencies/random"
	"github.com/mcoot/paradox/internal/model"
	"github.com/mcoot/paradox/internal/storage"
)

// Service serves the read-mostly reference data: level questions, hint sets
// and the team directory.
type Service struct {
	storage storage.Storage
	random  random.Random
	logger  *slog.Logger
}

// New creates a new catalog Service
func New(storage storage.Storage, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		random:  random,
		logger:  logger.With(slog.String("component", "catalog")),
	}
}

func (s *Service) Question(ctx context.Context, level int) (*model.Question, error) {
	return s.storage.GetQuestion(ctx, level)
}

func (s *Service) Questions(ctx context.Context) ([]*model.Question, error) {
	return s.storage.ListQuestions(ctx)
}

func (s *Service) HintSet(ctx context.Context, level int) (*model.HintSet, error) {
	return s.storage.GetHintSet(ctx, level)
}

func (s *Service) HintSets(ctx context.Context) ([]*model.HintSet, error) {
	return s.storage.ListHintSets(ctx)
}

func (s *Service) Members(ctx context.Context) ([]*model.Member, error) {
	return s.storage.ListMembers(ctx)
}

// Positions returns the accepted member positions
func (s *Service) Positions() []string {
	out := make([]string, len(model.Positions))
	copy(out, model.Positions)
	return out
}

// MemberInput holds the fields accepted when adding a directory entry
type MemberInput struct {
	Name        string
	Position    string
	Category    string
	ImageURL    string
	GithubURL   string
	LinkedInURL string
}

// AddMember validates and stores a new directory entry
func (s *Service) AddMember(ctx context.Context, in MemberInput) (*model.Member, error) {
	v := model.NewValidationError()
	v.CheckRequired("name", in.Name)
	if !model.IsValidPosition(in.Position) {
		v.Add("position", "must be one of: "+strings.Join(model.Positions, ", "))
	}
	v.CheckOptionalURL("image_url", in.ImageURL)
	v.CheckOptionalURL("github_url", in.GithubURL)
	v.CheckOptionalURL("linkedin_url", in.LinkedInURL)
	if err := v.Err(); err != nil {
		return nil, err
	}

	member := &model.Member{
		ID:          model.MemberID(s.random.UUID()),
		Name:        strings.TrimSpace(in.Name),
		Position:    in.Position,
		Category:    strings.TrimSpace(in.Category),
		ImageURL:    in.ImageURL,
		GithubURL:   in.GithubURL,
		LinkedInURL: in.LinkedInURL,
	}
	if err := s.storage.SaveMember(ctx, member); err != nil {
		s.logger.Error("failed to save member", slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.Info("member added",
		slog.String("member_id", string(member.ID)),
		slog.String("position", member.Position))
	return member, nil
}

// Seed is the on-disk catalog format
type Seed struct {
	Questions []SeedQuestion `json:"questions"`
	Hints     []SeedHintSet  `json:"hints"`
	Members   []SeedMember   `json:"members"`
}

type SeedQuestion struct {
	Level          int    `json:"level"`
	MediaReference string `json:"media_reference"`
	Answer         string `json:"answer"`
}

type SeedHintSet struct {
	Level int      `json:"level"`
	Tiers []string `json:"tiers"`
}

type SeedMember struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Position    string `json:"position"`
	Category    string `json:"category"`
	ImageURL    string `json:"image_url"`
	GithubURL   string `json:"github_url"`
	LinkedInURL string `json:"linkedin_url"`
}

// LoadFromFile reads a JSON seed file and stores its contents
func (s *Service) LoadFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read catalog seed: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse catalog seed %s: %w", path, err)
	}
	return s.Load(ctx, &seed)
}

// Load validates the whole seed before writing any of it
func (s *Service) Load(ctx context.Context, seed *Seed) error {
	if err := seed.validate(); err != nil {
		return err
	}

	for _, q := range seed.Questions {
		if err := s.storage.SaveQuestion(ctx, &model.Question{
			Level:          q.Level,
			MediaReference: q.MediaReference,
			Answer:         strings.TrimSpace(q.Answer),
		}); err != nil {
			return fmt.Errorf("failed to store question %d: %w", q.Level, err)
		}
	}
	for _, h := range seed.Hints {
		if err := s.storage.SaveHintSet(ctx, &model.HintSet{Level: h.Level, Tiers: h.Tiers}); err != nil {
			return fmt.Errorf("failed to store hints for level %d: %w", h.Level, err)
		}
	}
	for _, m := range seed.Members {
		if err := s.storage.SaveMember(ctx, &model.Member{
			ID:          model.MemberID(m.ID),
			Name:        m.Name,
			Position:    m.Position,
			Category:    m.Category,
			ImageURL:    m.ImageURL,
			GithubURL:   m.GithubURL,
			LinkedInURL: m.LinkedInURL,
		}); err != nil {
			return fmt.Errorf("failed to store member %s: %w", m.ID, err)
		}
	}

	s.logger.Info("catalog loaded",
		slog.Int("questions", len(seed.Questions)),
		slog.Int("hint_sets", len(seed.Hints)),
		slog.Int("members", len(seed.Members)))
	return nil
}

func (seed *Seed) validate() error {
	v := model.NewValidationError()

	levels := make(map[int]bool, len(seed.Questions))
	for i, q := range seed.Questions {
		field := fmt.Sprintf("questions[%d]", i)
		if q.Level <= 0 {
			v.Add(field, "level must be positive")
		}
		if levels[q.Level] {
			v.Add(field, fmt.Sprintf("duplicate level %d", q.Level))
		}
		levels[q.Level] = true
		if strings.TrimSpace(q.Answer) == "" {
			v.Add(field, "answer is required")
		}
	}

	hintLevels := make(map[int]bool, len(seed.Hints))
	for i, h := range seed.Hints {
		field := fmt.Sprintf("hints[%d]", i)
		if h.Level <= 0 {
			v.Add(field, "level must be positive")
		}
		if hintLevels[h.Level] {
			v.Add(field, fmt.Sprintf("duplicate level %d", h.Level))
		}
		hintLevels[h.Level] = true
		if len(h.Tiers) == 0 || len(h.Tiers) > model.MaxHintTier {
			v.Add(field, fmt.Sprintf("must have between 1 and %d tiers", model.MaxHintTier))
		}
	}

	for i, m := range seed.Members {
		field := fmt.Sprintf("members[%d]", i)
		if m.ID == "" {
			v.Add(field, "id is required")
		}
		if !model.IsValidPosition(m.Position) {
			v.Add(field, fmt.Sprintf("unknown position %q", m.Position))
		}
	}

	return v.Err()
}
