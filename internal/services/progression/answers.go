package progression

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mcoot/paradox/internal/model"
	"github.com/mcoot/paradox/internal/storage"
)

// SubmitAnswer checks answer against the question for level. A correct
// answer at the player's current level pays out and advances the player; an
// incorrect one changes nothing.
func (e *Engine) SubmitAnswer(ctx context.Context, id model.IdentityID, level int, answer string) (_ *model.Player, err error) {
	ctx, span := e.startSpan(ctx, "progression.SubmitAnswer", id)
	defer func() { e.finish(span, "answer", id, err) }()

	question, err := e.storage.GetQuestion(ctx, level)
	if err != nil {
		return nil, err
	}
	correct := strings.TrimSpace(answer) == question.Answer

	var player *model.Player
	err = e.storage.Atomically(ctx, []model.IdentityID{id}, func(ctx context.Context, tx storage.Tx) error {
		p, err := tx.Player(ctx, id)
		if err != nil {
			return err
		}
		if p.Level != level {
			return model.ErrLevelMismatch
		}
		if !correct {
			return model.ErrIncorrectAnswer
		}
		if err := p.AdvanceLevel(level); err != nil {
			return err
		}
		player = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("level cleared",
		slog.String("identity_id", string(id)),
		slog.Int("cleared_level", level),
		slog.Int("level", player.Level),
		slog.Int("coins", player.Coins))
	e.publish(model.EventLevelCleared, id, model.LevelClearedPayload{
		ClearedLevel: level,
		Level:        player.Level,
		Score:        player.Score,
	})
	return player, nil
}
