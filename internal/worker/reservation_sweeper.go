package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-court-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-court-reservation/internal/pkg/metrics"
)

// ReservationSweepService は定期処理が呼び出す予約操作のインターフェース
type ReservationSweepService interface {
	// CancelStalePending は支払い確認されない pending 予約をキャンセルする
	CancelStalePending(ctx context.Context, olderThan time.Duration) (int, error)
	// MarkNoShows はチェックイン可能時間を過ぎた confirmed 予約を no_show にする
	MarkNoShows(ctx context.Context, now time.Time) (int, error)
}

// ReservationSweeper は予約の時限遷移を定期実行するワーカー
// pending の自動キャンセルと confirmed の no_show 遷移を担う
type ReservationSweeper struct {
	reservationService ReservationSweepService
	interval           time.Duration
	pendingTTL         time.Duration
	metrics            *metrics.Metrics
	stopCh             chan struct{}
	doneCh             chan struct{}
}

// NewReservationSweeper は新しいスイーパーを作成
func NewReservationSweeper(
	rs ReservationSweepService,
	interval time.Duration,
	pendingTTL time.Duration,
	m *metrics.Metrics,
) *ReservationSweeper {
	return &ReservationSweeper{
		reservationService: rs,
		interval:           interval,
		pendingTTL:         pendingTTL,
		metrics:            m,
		stopCh:             make(chan struct{}),
		doneCh:             make(chan struct{}),
	}
}

// Start はスイーパーを開始
func (w *ReservationSweeper) Start(ctx context.Context) {
	logger.Info("予約スイーパー開始",
		zap.Duration("interval", w.interval),
		zap.Duration("pending_ttl", w.pendingTTL),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("予約スイーパー停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			logger.Info("予約スイーパー停止（シグナル受信）")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// Stop はスイーパーを停止
func (w *ReservationSweeper) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

// sweep は1回分の時限遷移を実行
func (w *ReservationSweeper) sweep(ctx context.Context) {
	log := logger.Get()
	log.Debug("予約スイープ開始")

	expired, err := w.reservationService.CancelStalePending(ctx, w.pendingTTL)
	if err != nil {
		log.Error("滞留予約のキャンセルに失敗", zap.Error(err))
	} else if expired > 0 {
		log.Info("滞留予約をキャンセル", zap.Int("count", expired))
		w.count("expired", expired)
	}

	noShows, err := w.reservationService.MarkNoShows(ctx, time.Now())
	if err != nil {
		log.Error("no_show遷移に失敗", zap.Error(err))
	} else if noShows > 0 {
		log.Info("来場なし予約をno_showに遷移", zap.Int("count", noShows))
		w.count("no_show", noShows)
	}
}

func (w *ReservationSweeper) count(reason string, n int) {
	if w.metrics == nil {
		return
	}
	w.metrics.SweptReservationsTotal.WithLabelValues(reason).Add(float64(n))
}
