// Package repotest provides in-memory repository implementations mirroring
// the PostgreSQL guard semantics, for exercising merge and settlement logic
// without a database.
package repotest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourusername/pitchside/internal/models"
	"github.com/yourusername/pitchside/internal/repository"
)

// Store is the shared backing state for one in-memory repository set
type Store struct {
	mu sync.Mutex

	competitions map[uuid.UUID]*models.Competition
	teams        map[uuid.UUID]*models.Team
	bookmakers   map[uuid.UUID]*models.Bookmaker
	categories   map[uuid.UUID]*models.MarketCategory
	matches      map[uuid.UUID]*models.Match
	markets      map[uuid.UUID]*models.Market
	outcomes     map[uuid.UUID]*models.MarketOutcome
	wagers       map[uuid.UUID]*models.Wager
	tickets      map[uuid.UUID]*models.Ticket
	wallets      map[uuid.UUID]*models.Wallet
	ledger       []*models.LedgerEntry
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		competitions: make(map[uuid.UUID]*models.Competition),
		teams:        make(map[uuid.UUID]*models.Team),
		bookmakers:   make(map[uuid.UUID]*models.Bookmaker),
		categories:   make(map[uuid.UUID]*models.MarketCategory),
		matches:      make(map[uuid.UUID]*models.Match),
		markets:      make(map[uuid.UUID]*models.Market),
		outcomes:     make(map[uuid.UUID]*models.MarketOutcome),
		wagers:       make(map[uuid.UUID]*models.Wager),
		tickets:      make(map[uuid.UUID]*models.Ticket),
		wallets:      make(map[uuid.UUID]*models.Wallet),
	}
}

// NewRepositories returns a repository set backed by the store
func NewRepositories(s *Store) *repository.Repositories {
	return &repository.Repositories{
		Competition: &competitionRepo{s},
		Team:        &teamRepo{s},
		Bookmaker:   &bookmakerRepo{s},
		Category:    &categoryRepo{s},
		Match:       &matchRepo{s},
		Market:      &marketRepo{s},
		Outcome:     &outcomeRepo{s},
		Wager:       &wagerRepo{s},
		Ticket:      &ticketRepo{s},
		Wallet:      &walletRepo{s},
	}
}

// Seed helpers let tests install rows directly.

// SeedMatch stores a match as-is
func (s *Store) SeedMatch(m *models.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *m
	s.matches[m.ID] = &c
}

// SeedOutcome stores an outcome as-is
func (s *Store) SeedOutcome(o *models.MarketOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *o
	s.outcomes[o.ID] = &c
}

// SeedMarket stores a market as-is
func (s *Store) SeedMarket(m *models.Market) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *m
	s.markets[m.ID] = &c
}

// SeedWager stores a wager as-is
func (s *Store) SeedWager(w *models.Wager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *w
	s.wagers[w.ID] = &c
}

// SeedTicket stores a ticket as-is
func (s *Store) SeedTicket(t *models.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *t
	s.tickets[t.ID] = &c
}

// SeedWallet stores a wallet as-is
func (s *Store) SeedWallet(w *models.Wallet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *w
	s.wallets[w.ID] = &c
}

// Ledger returns a copy of all ledger entries in insertion order
func (s *Store) Ledger() []*models.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]*models.LedgerEntry, len(s.ledger))
	for i, e := range s.ledger {
		c := *e
		entries[i] = &c
	}
	return entries
}

// Counts reports row counts for idempotency assertions
func (s *Store) Counts() (markets, outcomes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.markets), len(s.outcomes)
}

type competitionRepo struct{ s *Store }

func (r *competitionRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Competition, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.competitions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *competitionRepo) GetByExternalID(_ context.Context, externalID string) (*models.Competition, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.competitions {
		if c.ExternalID == externalID {
			clone := *c
			return &clone, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *competitionRepo) GetActive(_ context.Context) ([]*models.Competition, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var active []*models.Competition
	for _, c := range r.s.competitions {
		if c.IsActive {
			clone := *c
			active = append(active, &clone)
		}
	}
	return active, nil
}

func (r *competitionRepo) Upsert(_ context.Context, c *models.Competition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	for _, existing := range r.s.competitions {
		if existing.ExternalID == c.ExternalID {
			existing.Name = c.Name
			existing.Country = c.Country
			existing.Season = c.Season
			existing.IsActive = c.IsActive
			existing.UpdatedAt = now
			*c = *existing
			return nil
		}
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	clone := *c
	r.s.competitions[c.ID] = &clone
	return nil
}

func (r *competitionRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.competitions[id]
	if !ok {
		return models.ErrNotFound
	}
	c.IsActive = false
	return nil
}

type teamRepo struct{ s *Store }

func (r *teamRepo) GetByExternalID(_ context.Context, externalID string) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.teams {
		if t.ExternalID == externalID {
			clone := *t
			return &clone, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *teamRepo) Upsert(_ context.Context, t *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	for _, existing := range r.s.teams {
		if existing.ExternalID == t.ExternalID {
			existing.Name = t.Name
			if t.BadgeURL != nil {
				existing.BadgeURL = t.BadgeURL
			}
			existing.UpdatedAt = now
			*t = *existing
			return nil
		}
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	clone := *t
	r.s.teams[t.ID] = &clone
	return nil
}

type bookmakerRepo struct{ s *Store }

func (r *bookmakerRepo) GetByExternalID(_ context.Context, externalID string) (*models.Bookmaker, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookmakers {
		if b.ExternalID == externalID {
			clone := *b
			return &clone, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *bookmakerRepo) Upsert(_ context.Context, b *models.Bookmaker) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.bookmakers {
		if existing.ExternalID == b.ExternalID {
			existing.Name = b.Name
			*b = *existing
			return nil
		}
	}
	b.CreatedAt = time.Now()
	clone := *b
	r.s.bookmakers[b.ID] = &clone
	return nil
}

type categoryRepo struct{ s *Store }

func (r *categoryRepo) GetByID(_ context.Context, id uuid.UUID) (*models.MarketCategory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *categoryRepo) GetByCode(_ context.Context, code models.CategoryCode) (*models.MarketCategory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.categories {
		if c.Code == code {
			clone := *c
			return &clone, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *categoryRepo) EnsureDefaults(_ context.Context) error {
	defaults := map[models.CategoryCode]string{
		models.CategoryMatchWinner:  "Match Winner",
		models.CategoryTotals:       "Over/Under Goals",
		models.CategoryHandicap:     "Handicap",
		models.CategoryBTTS:         "Both Teams To Score",
		models.CategoryDoubleChance: "Double Chance",
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for code, name := range defaults {
		exists := false
		for _, c := range r.s.categories {
			if c.Code == code {
				exists = true
				break
			}
		}
		if !exists {
			id := uuid.New()
			r.s.categories[id] = &models.MarketCategory{
				ID: id, Code: code, Name: name, CreatedAt: time.Now(),
			}
		}
	}
	return nil
}

type matchRepo struct{ s *Store }

func (r *matchRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *matchRepo) GetByExternalID(_ context.Context, competitionID uuid.UUID, externalID string) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.matches {
		if m.CompetitionID == competitionID && m.ExternalID == externalID {
			clone := *m
			return &clone, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *matchRepo) Upsert(_ context.Context, m *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	for _, existing := range r.s.matches {
		if existing.CompetitionID == m.CompetitionID && existing.ExternalID == m.ExternalID {
			existing.HomeTeamID = m.HomeTeamID
			existing.AwayTeamID = m.AwayTeamID
			if m.KickoffAt != nil {
				existing.KickoffAt = m.KickoffAt
			}
			if m.HomeScore != nil {
				existing.HomeScore = m.HomeScore
			}
			if m.AwayScore != nil {
				existing.AwayScore = m.AwayScore
			}
			if m.FeedUpdatedAt != nil {
				existing.FeedUpdatedAt = m.FeedUpdatedAt
			}
			existing.UpdatedAt = now
			*m = *existing
			return nil
		}
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	clone := *m
	r.s.matches[m.ID] = &clone
	return nil
}

func (r *matchRepo) Update(_ context.Context, m *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.matches[m.ID]
	if !ok {
		return models.ErrNotFound
	}
	existing.Status = m.Status
	existing.HomeScore = m.HomeScore
	existing.AwayScore = m.AwayScore
	existing.FeedUpdatedAt = m.FeedUpdatedAt
	existing.LastOddsSyncAt = m.LastOddsSyncAt
	existing.LastScoreSyncAt = m.LastScoreSyncAt
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *matchRepo) TouchOddsSync(_ context.Context, id uuid.UUID, syncedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return models.ErrNotFound
	}
	m.LastOddsSyncAt = &syncedAt
	return nil
}

func (r *matchRepo) GetScheduledInWindow(_ context.Context, from, to time.Time) ([]*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matches []*models.Match
	for _, m := range r.s.matches {
		if m.Status != models.MatchStatusScheduled || m.KickoffAt == nil {
			continue
		}
		if !m.KickoffAt.Before(from) && m.KickoffAt.Before(to) {
			clone := *m
			matches = append(matches, &clone)
		}
	}
	return matches, nil
}

func (r *matchRepo) GetStaleOdds(_ context.Context, cutoff time.Time) ([]*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matches []*models.Match
	for _, m := range r.s.matches {
		if m.Status != models.MatchStatusScheduled || m.KickoffAt == nil {
			continue
		}
		if m.LastOddsSyncAt == nil || m.LastOddsSyncAt.Before(cutoff) {
			clone := *m
			matches = append(matches, &clone)
		}
	}
	return matches, nil
}

func (r *matchRepo) GetUnfinishedPastKickoff(_ context.Context, cutoff time.Time) ([]*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matches []*models.Match
	for _, m := range r.s.matches {
		if m.Status != models.MatchStatusScheduled && m.Status != models.MatchStatusLive {
			continue
		}
		if m.KickoffAt != nil && m.KickoffAt.Before(cutoff) {
			clone := *m
			matches = append(matches, &clone)
		}
	}
	return matches, nil
}

func (r *matchRepo) GetByStatus(_ context.Context, status models.MatchStatus) ([]*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matches []*models.Match
	for _, m := range r.s.matches {
		if m.Status == status {
			clone := *m
			matches = append(matches, &clone)
		}
	}
	return matches, nil
}

type marketRepo struct{ s *Store }

func (r *marketRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Market, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.markets[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *marketRepo) GetByUniqueKey(_ context.Context, matchID, bookmakerID uuid.UUID, providerKey string) (*models.Market, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.markets {
		if m.MatchID == matchID && m.BookmakerID == bookmakerID && m.ProviderKey == providerKey {
			clone := *m
			return &clone, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *marketRepo) GetByMatch(_ context.Context, matchID uuid.UUID) ([]*models.Market, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var markets []*models.Market
	for _, m := range r.s.markets {
		if m.MatchID == matchID {
			clone := *m
			markets = append(markets, &clone)
		}
	}
	return markets, nil
}

func (r *marketRepo) Create(_ context.Context, m *models.Market) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	clone := *m
	r.s.markets[m.ID] = &clone
	return nil
}

func (r *marketRepo) Update(_ context.Context, m *models.Market) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.markets[m.ID]
	if !ok {
		return models.ErrNotFound
	}
	existing.CategoryID = m.CategoryID
	existing.Line = m.Line
	existing.IsActive = m.IsActive
	existing.LastSyncedAt = m.LastSyncedAt
	existing.UpdatedAt = time.Now()
	return nil
}

type outcomeRepo struct{ s *Store }

func (r *outcomeRepo) GetByID(_ context.Context, id uuid.UUID) (*models.MarketOutcome, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.outcomes[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	clone := *o
	return &clone, nil
}

func (r *outcomeRepo) GetByMarketAndName(_ context.Context, marketID uuid.UUID, name string) (*models.MarketOutcome, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.outcomes {
		if o.MarketID == marketID && o.Name == name {
			clone := *o
			return &clone, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *outcomeRepo) GetByMarket(_ context.Context, marketID uuid.UUID) ([]*models.MarketOutcome, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var outcomes []*models.MarketOutcome
	for _, o := range r.s.outcomes {
		if o.MarketID == marketID {
			clone := *o
			outcomes = append(outcomes, &clone)
		}
	}
	return outcomes, nil
}

func (r *outcomeRepo) Create(_ context.Context, o *models.MarketOutcome) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.Result == "" {
		o.Result = models.OutcomeResultUnresolved
	}
	clone := *o
	r.s.outcomes[o.ID] = &clone
	return nil
}

func (r *outcomeRepo) Update(_ context.Context, o *models.MarketOutcome) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.outcomes[o.ID]
	if !ok {
		return models.ErrNotFound
	}
	existing.Price = o.Price
	existing.IsActive = o.IsActive
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *outcomeRepo) DeactivateMissing(_ context.Context, marketID uuid.UUID, keep []string) (int, error) {
	kept := make(map[string]bool, len(keep))
	for _, name := range keep {
		kept[name] = true
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	deactivated := 0
	for _, o := range r.s.outcomes {
		if o.MarketID == marketID && o.IsActive && !kept[o.Name] {
			o.IsActive = false
			deactivated++
		}
	}
	return deactivated, nil
}

func (r *outcomeRepo) SetResult(_ context.Context, id uuid.UUID, result models.OutcomeResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.outcomes[id]
	if !ok {
		return models.ErrNotFound
	}
	if o.Result != models.OutcomeResultUnresolved && o.Result != result {
		return fmt.Errorf("outcome %s already resolved to a different result", id)
	}
	o.Result = result
	return nil
}

type wagerRepo struct{ s *Store }

func (r *wagerRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Wager, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wagers[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	clone := *w
	return &clone, nil
}

func (r *wagerRepo) GetByTicket(_ context.Context, ticketID uuid.UUID) ([]*models.Wager, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var wagers []*models.Wager
	for _, w := range r.s.wagers {
		if w.TicketID == ticketID {
			clone := *w
			wagers = append(wagers, &clone)
		}
	}
	return wagers, nil
}

func (r *wagerRepo) GetPendingByMatch(_ context.Context, matchID uuid.UUID) ([]*models.Wager, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var wagers []*models.Wager
	for _, w := range r.s.wagers {
		if w.Status != models.WagerStatusPending {
			continue
		}
		outcome, ok := r.s.outcomes[w.OutcomeID]
		if !ok {
			continue
		}
		market, ok := r.s.markets[outcome.MarketID]
		if !ok || market.MatchID != matchID {
			continue
		}
		clone := *w
		wagers = append(wagers, &clone)
	}
	return wagers, nil
}

func (r *wagerRepo) Create(_ context.Context, w *models.Wager) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	w.CreatedAt = now
	w.UpdatedAt = now
	clone := *w
	r.s.wagers[w.ID] = &clone
	return nil
}

func (r *wagerRepo) Settle(_ context.Context, id uuid.UUID, status models.WagerStatus, payout decimal.Decimal, settledAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wagers[id]
	if !ok {
		return false, models.ErrNotFound
	}
	if w.Status != models.WagerStatusPending {
		return false, nil
	}
	w.Status = status
	w.PotentialPayout = payout
	w.SettledAt = &settledAt
	w.UpdatedAt = time.Now()
	return true, nil
}

type ticketRepo struct{ s *Store }

func (r *ticketRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *ticketRepo) GetPendingByMatch(_ context.Context, matchID uuid.UUID) ([]*models.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := make(map[uuid.UUID]bool)
	var tickets []*models.Ticket
	for _, w := range r.s.wagers {
		outcome, ok := r.s.outcomes[w.OutcomeID]
		if !ok {
			continue
		}
		market, ok := r.s.markets[outcome.MarketID]
		if !ok || market.MatchID != matchID {
			continue
		}
		t, ok := r.s.tickets[w.TicketID]
		if !ok || t.Status != models.TicketStatusPending || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		clone := *t
		tickets = append(tickets, &clone)
	}
	return tickets, nil
}

func (r *ticketRepo) Create(_ context.Context, t *models.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	clone := *t
	r.s.tickets[t.ID] = &clone
	return nil
}

func (r *ticketRepo) Settle(_ context.Context, id uuid.UUID, status models.TicketStatus, payout decimal.Decimal, settledAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return false, models.ErrNotFound
	}
	if t.Status != models.TicketStatusPending {
		return false, nil
	}
	t.Status = status
	t.TotalPayout = payout
	t.SettledAt = &settledAt
	t.UpdatedAt = time.Now()
	return true, nil
}

func (r *ticketRepo) MarkPaid(_ context.Context, id uuid.UUID, paidAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return false, models.ErrNotFound
	}
	if t.PaidAt != nil {
		return false, nil
	}
	t.PaidAt = &paidAt
	t.UpdatedAt = time.Now()
	return true, nil
}

type walletRepo struct{ s *Store }

func (r *walletRepo) GetByUser(_ context.Context, userID uuid.UUID) (*models.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, w := range r.s.wallets {
		if w.UserID == userID {
			clone := *w
			return &clone, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *walletRepo) GetOrCreateByUser(_ context.Context, userID uuid.UUID) (*models.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, w := range r.s.wallets {
		if w.UserID == userID {
			clone := *w
			return &clone, nil
		}
	}
	now := time.Now()
	w := &models.Wallet{
		ID: uuid.New(), UserID: userID, Balance: decimal.Zero,
		CreatedAt: now, UpdatedAt: now,
	}
	r.s.wallets[w.ID] = w
	clone := *w
	return &clone, nil
}

func (r *walletRepo) Credit(_ context.Context, userID uuid.UUID, amount decimal.Decimal, operation models.LedgerOperation, reference, description string) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var wallet *models.Wallet
	for _, w := range r.s.wallets {
		if w.UserID == userID {
			wallet = w
			break
		}
	}
	if wallet == nil {
		return decimal.Zero, models.ErrNotFound
	}

	for _, e := range r.s.ledger {
		if e.WalletID == wallet.ID && e.Reference == reference {
			// Credit already applied
			return wallet.Balance, nil
		}
	}

	r.s.ledger = append(r.s.ledger, &models.LedgerEntry{
		ID:          uuid.New(),
		WalletID:    wallet.ID,
		Operation:   operation,
		Amount:      amount,
		Reference:   reference,
		Description: description,
		CreatedAt:   time.Now(),
	})
	wallet.Balance = wallet.Balance.Add(amount)
	wallet.UpdatedAt = time.Now()
	return wallet.Balance, nil
}

func (r *walletRepo) GetLedger(_ context.Context, walletID uuid.UUID) ([]*models.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var entries []*models.LedgerEntry
	for _, e := range r.s.ledger {
		if e.WalletID == walletID {
			clone := *e
			entries = append(entries, &clone)
		}
	}
	return entries, nil
}
