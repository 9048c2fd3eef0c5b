package reports

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/BearBump/ScoreBox/internal/cache"
	"github.com/BearBump/ScoreBox/internal/models"
	"github.com/BearBump/ScoreBox/internal/scorecard"
	"github.com/BearBump/ScoreBox/internal/storage/pgreports"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrArchiveDisabled = errors.New("report archive is not configured")
)

type Source interface {
	FetchShipments(ctx context.Context, f models.ShipmentFilter) ([]models.RawShipment, error)
	ListCarriers(ctx context.Context, since time.Time) ([]string, error)
	ActiveCarriers(ctx context.Context, since time.Time, minShipments int) ([]models.CarrierActivity, error)
}

type Archive interface {
	SaveReport(ctx context.Context, reportID string, r *scorecard.Report, generatedAt time.Time) error
	History(ctx context.Context, carrier string, limit int) ([]pgreports.ArchivedWeek, error)
	GetReport(ctx context.Context, reportID string) (*scorecard.Report, error)
}

type Publisher interface {
	PublishJSON(ctx context.Context, topic, key string, v any) error
}

type Options struct {
	// Since is the floor for fetched rows (scheduled pickup window start).
	Since       time.Time
	ReportTTL   time.Duration
	CarriersTTL time.Duration

	GeneratedTopic string

	ActiveWeeks        int
	ActiveMinShipments int
}

// Stats are the stage counters of one generation.
type Stats struct {
	Rows               int `json:"rows"`
	PickupDuplicates   int `json:"pickupDuplicates"`
	DeliveryDuplicates int `json:"deliveryDuplicates"`
	ImputedPickup      int `json:"imputedPickup"`
	ImputedDelivery    int `json:"imputedDelivery"`
}

// Generated is a built report plus its identity.
type Generated struct {
	ID          string            `json:"id"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Report      *scorecard.Report `json:"report"`
	Stats       Stats             `json:"stats"`
	Cached      bool              `json:"cached"`
}

type Service struct {
	source  Source
	archive Archive
	cache   cache.BytesCache
	pub     Publisher
	log     *zap.Logger
	opts    Options

	now   func() time.Time
	newID func() string
}

// New wires the service. Archive, cache and publisher are optional.
func New(source Source, archive Archive, c cache.BytesCache, pub Publisher, log *zap.Logger, opts Options) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.ActiveWeeks <= 0 {
		opts.ActiveWeeks = 4
	}
	if opts.ActiveMinShipments <= 0 {
		opts.ActiveMinShipments = 5
	}
	return &Service{
		source:  source,
		archive: archive,
		cache:   c,
		pub:     pub,
		log:     log,
		opts:    opts,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// DefaultWeeks is the selection used when a request names none.
func (s *Service) DefaultWeeks() []models.WeekKey {
	return models.DefaultWeeks(s.now())
}

// CurrentYear is the ISO year bare week numbers refer to.
func (s *Service) CurrentYear() int {
	y, _ := s.now().ISOWeek()
	return y
}

// Generate builds the report of one carrier. Empty weeks mean the previous
// and the current ISO week.
func (s *Service) Generate(ctx context.Context, carrier string, weeks []models.WeekKey) (*Generated, error) {
	carrier = strings.TrimSpace(carrier)
	if carrier == "" {
		return nil, errors.Wrap(ErrInvalidRequest, "carrier is required")
	}
	if models.IsAllCarriers(carrier) {
		return nil, errors.Wrap(ErrInvalidRequest, "use GenerateAll for every carrier")
	}
	if len(weeks) == 0 {
		weeks = s.DefaultWeeks()
	}

	key := reportKey(carrier, weeks)
	if g, ok := s.cachedReport(ctx, key); ok {
		return g, nil
	}

	prep, err := s.fetchPrepared(ctx, models.ShipmentFilter{Carrier: carrier, Since: s.opts.Since})
	if err != nil {
		return nil, err
	}

	r, err := scorecard.BuildReport(prep.Events, carrier, weeks)
	if err != nil {
		return nil, err
	}
	g := s.finish(ctx, r, prep)
	s.cacheReport(ctx, key, g)
	return g, nil
}

// Regenerate drops the cached report of carrier and weeks, then builds it again.
func (s *Service) Regenerate(ctx context.Context, carrier string, weeks []models.WeekKey) (*Generated, error) {
	if len(weeks) == 0 {
		weeks = s.DefaultWeeks()
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, reportKey(strings.TrimSpace(carrier), weeks)); err != nil {
			s.log.Warn("report cache delete failed", zap.String("carrier", carrier), zap.Error(err))
		}
	}
	return s.Generate(ctx, carrier, weeks)
}

// GenerateAll builds one report per carrier present in weeks. Deduplication
// runs once over the whole row set.
func (s *Service) GenerateAll(ctx context.Context, weeks []models.WeekKey) ([]*Generated, error) {
	if len(weeks) == 0 {
		weeks = s.DefaultWeeks()
	}
	prep, err := s.fetchPrepared(ctx, models.ShipmentFilter{Carrier: models.AllCarriers, Since: s.opts.Since})
	if err != nil {
		return nil, err
	}
	all, err := scorecard.BuildAll(prep.Events, weeks)
	if err != nil {
		return nil, err
	}
	out := make([]*Generated, 0, len(all))
	for _, r := range all {
		out = append(out, s.finish(ctx, r, prep))
	}
	return out, nil
}

func (s *Service) fetchPrepared(ctx context.Context, f models.ShipmentFilter) (scorecard.Prepared, error) {
	started := s.now()
	raw, err := s.source.FetchShipments(ctx, f)
	if err != nil {
		return scorecard.Prepared{}, scorecard.NewSourceError(err)
	}
	if err := ctx.Err(); err != nil {
		return scorecard.Prepared{}, err
	}

	prep := scorecard.Prepare(raw)
	s.log.Debug("shipments prepared",
		zap.String("carrier", f.Carrier),
		zap.Int("rows", len(raw)),
		zap.Int("pickup_duplicates", prep.PickupDuplicates),
		zap.Int("delivery_duplicates", prep.DeliveryDuplicates),
		zap.Int("imputed_pickup", prep.Imputed.Pickup),
		zap.Int("imputed_delivery", prep.Imputed.Delivery),
		zap.Duration("took", s.now().Sub(started)),
	)
	return prep, nil
}

func (s *Service) finish(ctx context.Context, r *scorecard.Report, prep scorecard.Prepared) *Generated {
	g := &Generated{
		ID:          s.newID(),
		GeneratedAt: s.now(),
		Report:      r,
		Stats: Stats{
			Rows:               len(prep.Events),
			PickupDuplicates:   prep.PickupDuplicates,
			DeliveryDuplicates: prep.DeliveryDuplicates,
			ImputedPickup:      prep.Imputed.Pickup,
			ImputedDelivery:    prep.Imputed.Delivery,
		},
	}
	if s.archive != nil {
		// архив не должен ронять генерацию отчёта
		if err := s.archive.SaveReport(ctx, g.ID, r, g.GeneratedAt); err != nil {
			s.log.Warn("archive report failed", zap.String("carrier", r.Carrier), zap.Error(err))
		}
	}
	s.log.Info("report generated",
		zap.String("report_id", g.ID),
		zap.String("carrier", r.Carrier),
		zap.Stringers("weeks", r.Weeks),
	)
	return g
}

func (s *Service) cachedReport(ctx context.Context, key string) (*Generated, bool) {
	if s.cache == nil || s.opts.ReportTTL <= 0 {
		return nil, false
	}
	b, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("report cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var g Generated
	if json.Unmarshal(b, &g) != nil || g.Report == nil {
		return nil, false
	}
	g.Cached = true
	return &g, true
}

func (s *Service) cacheReport(ctx context.Context, key string, g *Generated) {
	if s.cache == nil || s.opts.ReportTTL <= 0 {
		return
	}
	b, err := json.Marshal(g)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, b, s.opts.ReportTTL); err != nil {
		s.log.Warn("report cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// ListCarriers returns carrier names with rows since the configured floor.
func (s *Service) ListCarriers(ctx context.Context) ([]string, error) {
	key := "carriers:" + s.opts.Since.Format("2006-01-02")
	if s.cache != nil && s.opts.CarriersTTL > 0 {
		if b, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var names []string
			if json.Unmarshal(b, &names) == nil {
				return names, nil
			}
		}
	}

	names, err := s.source.ListCarriers(ctx, s.opts.Since)
	if err != nil {
		return nil, scorecard.NewSourceError(err)
	}
	if s.cache != nil && s.opts.CarriersTTL > 0 {
		b, _ := json.Marshal(names)
		_ = s.cache.Set(ctx, key, b, s.opts.CarriersTTL)
	}
	return names, nil
}

// ActiveCarriers returns carriers with enough shipments over the recent weeks.
func (s *Service) ActiveCarriers(ctx context.Context) ([]models.CarrierActivity, error) {
	since := s.now().AddDate(0, 0, -7*s.opts.ActiveWeeks)
	out, err := s.source.ActiveCarriers(ctx, since, s.opts.ActiveMinShipments)
	if err != nil {
		return nil, scorecard.NewSourceError(err)
	}
	return out, nil
}

func (s *Service) History(ctx context.Context, carrier string, limit int) ([]pgreports.ArchivedWeek, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	if strings.TrimSpace(carrier) == "" {
		return nil, errors.Wrap(ErrInvalidRequest, "carrier is required")
	}
	out, err := s.archive.History(ctx, carrier, limit)
	if err != nil {
		return nil, scorecard.NewSourceError(err)
	}
	return out, nil
}

// ArchivedReport loads a previously generated report by its id.
func (s *Service) ArchivedReport(ctx context.Context, reportID string) (*scorecard.Report, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	if strings.TrimSpace(reportID) == "" {
		return nil, errors.Wrap(ErrInvalidRequest, "report id is required")
	}
	r, err := s.archive.GetReport(ctx, reportID)
	if errors.Is(err, pgreports.ErrReportNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, scorecard.NewSourceError(err)
	}
	return r, nil
}

func reportKey(carrier string, weeks []models.WeekKey) string {
	parts := make([]string, 0, len(weeks))
	for _, w := range weeks {
		parts = append(parts, w.String())
	}
	return "report:" + strings.ToLower(carrier) + ":" + strings.Join(parts, ",")
}
