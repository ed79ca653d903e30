package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AdamBeresnev/tournament-portal/internal/bracket"
	"github.com/AdamBeresnev/tournament-portal/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Advancer moves the winner of a completed match into the next round
type Advancer struct {
	matches     *store.MatchStore
	brackets    *store.BracketStore
	tournaments *store.TournamentStore
}

func NewAdvancer(matches *store.MatchStore, brackets *store.BracketStore, tournaments *store.TournamentStore) *Advancer {
	return &Advancer{matches: matches, brackets: brackets, tournaments: tournaments}
}

type Advancement struct {
	// Matches that received the winner and still have to be played
	Next []bracket.Match
	// Matches completed on the way because the winner had no opponent there
	AutoCompleted []bracket.Match

	TournamentCompleted bool
	ChampionID          *uuid.UUID
}

// Advance runs inside the caller's transaction and never commits. When the winner lands
// next to a permanent bye that match is completed too and advancement carries on from it.
func (a *Advancer) Advance(ctx context.Context, tx *sqlx.Tx, match *bracket.Match) (*Advancement, error) {
	record, err := a.brackets.GetRecord(ctx, tx, match.BracketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bracket: %w", err)
	}

	adv := &Advancement{}
	current := match
	for {
		if current.Status != bracket.MatchCompleted || current.WinnerID == nil {
			return nil, fmt.Errorf("match %s has no winner to advance", current.ID)
		}
		winner := *current.WinnerID

		if current.Round >= record.FinalRound() {
			if err := a.tournaments.UpdateTournamentStatusTx(ctx, tx, current.TournamentID, bracket.TournamentCompleted, &winner); err != nil {
				return nil, err
			}
			adv.TournamentCompleted = true
			adv.ChampionID = &winner
			return adv, nil
		}

		nextRound := current.Round + 1
		nextIndex := bracket.ParentIndex(current.MatchIndex)
		side := bracket.SideForIndex(current.MatchIndex)

		target, err := a.matches.FindByPosition(ctx, tx, record.ID, nextRound, nextIndex)
		if errors.Is(err, bracket.ErrNotFound) {
			slog.Error("next round match is missing",
				"tournament_id", current.TournamentID,
				"match_id", current.ID,
				"round", nextRound,
				"match_index", nextIndex)
			return nil, fmt.Errorf("%w: no match at round %d index %d", bracket.ErrAdvancementInconsistency, nextRound, nextIndex)
		}
		if err != nil {
			return nil, err
		}

		filled, err := a.matches.FillSide(ctx, tx, target.ID, side, winner)
		if err != nil {
			return nil, err
		}
		if !filled {
			if existing := target.Participant(side); existing != nil && *existing == winner {
				return nil, bracket.ErrAlreadyAdvanced
			}
			slog.Error("next round slot is already taken",
				"tournament_id", current.TournamentID,
				"match_id", current.ID,
				"target_match_id", target.ID,
				"side", side.String())
			return nil, fmt.Errorf("%w: %s slot of match %s", bracket.ErrAdvancementInconsistency, side, target.ID)
		}

		if side == bracket.FirstSlot {
			target.Participant1ID = &winner
		} else {
			target.Participant2ID = &winner
		}

		if !target.IsByeSide(side.Other()) {
			adv.Next = append(adv.Next, *target)
			return adv, nil
		}

		if err := a.matches.CompleteBye(ctx, tx, target.ID, winner); err != nil {
			return nil, fmt.Errorf("failed to complete bye: %w", err)
		}
		target.Status = bracket.MatchCompleted
		target.WinnerID = &winner
		adv.AutoCompleted = append(adv.AutoCompleted, *target)
		current = target
	}
}
