// Command coupon-ingest loads promo-code feeds into the coupons table.
//
// Each campaign partner ships a gzipped newline-separated list of codes. A
// code is only honored when at least two partner feeds agree on it, so the
// ingester makes two passes: first it builds one bloom filter per feed,
// then it re-streams every feed and keeps the codes that probe positive in
// at least one other feed's filter.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/maisonnoir/storefront/internal/domain/coupon"
	"github.com/maisonnoir/storefront/internal/repository"
)

const (
	feedCount     = 3
	filterCap     = 120_000_000
	filterFPR     = 0.001
	minCodeLen    = 8
	maxCodeLen    = 10
	progressEvery = 10_000_000
)

// campaignRules overrides the discount for named campaign codes. Everything
// else that survives the two-feed check gets defaultRule.
var campaignRules = map[string]struct {
	percent     string
	description string
}{
	"PRIVSALE": {"30", "Private sale: 30% off"},
	"VIPNOIR2": {"25", "VIP clientele: 25% off"},
	"RUNWAY15": {"15", "Runway season: 15% off"},
	"ARCHIVE2": {"40", "Archive pieces: 40% off"},
	"MAISON18": {"18", "Maison anniversary: 18% off"},
}

var defaultRule = struct {
	percent     string
	description string
}{"10", "Valid promo code: 10% off"}

func main() {
	var (
		feedDir     string
		databaseURL string
	)

	flag.StringVar(&feedDir, "feed-dir", "data", "directory containing promocodesN.gz feed files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, feedDir, databaseURL); err != nil {
		slog.Error("coupon ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon ingest completed successfully")
}

func run(ctx context.Context, feedDir, databaseURL string) error {
	feeds := make([]string, feedCount)
	for i := range feedCount {
		feeds[i] = filepath.Join(feedDir, fmt.Sprintf("promocodes%d.gz", i+1))
	}
	for _, feed := range feeds {
		if _, err := os.Stat(feed); err != nil {
			return errors.Wrapf(err, "check feed %s", feed)
		}
	}

	slog.Info("pass 1: building feed filters", slog.Int("feeds", feedCount))
	filters, err := buildFeedFilters(ctx, feeds)
	if err != nil {
		return errors.Wrap(err, "build feed filters")
	}

	slog.Info("pass 2: collecting codes present in 2+ feeds")
	codes, err := collectAgreedCodes(ctx, feeds, filters)
	if err != nil {
		return errors.Wrap(err, "collect codes")
	}

	slog.Info("agreed codes collected", slog.Int("count", len(codes)))
	if len(codes) == 0 {
		slog.Info("nothing to insert")
		return nil
	}

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := loadRules(ctx, repository.NewCouponRepository(pool), codes); err != nil {
		return errors.Wrap(err, "load coupon rules")
	}
	return nil
}

// buildFeedFilters streams every feed once, concurrently, and returns one
// bloom filter per feed.
func buildFeedFilters(ctx context.Context, feeds []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(feeds))

	g, ctx := errgroup.WithContext(ctx)
	for i, feed := range feeds {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(filterCap, filterFPR)
			var seen uint64

			err := scanFeed(ctx, feed, func(code string) {
				filter.AddString(code)
				seen++
				if seen%progressEvery == 0 {
					slog.Info("pass 1 progress", slog.Int("feed", i+1), slog.Uint64("codes", seen))
				}
			})
			if err != nil {
				return errors.Wrapf(err, "feed %d", i+1)
			}

			slog.Info("pass 1 feed done", slog.Int("feed", i+1), slog.Uint64("codes", seen))
			filters[i] = filter
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// collectAgreedCodes re-streams each feed, probing every code against the
// OTHER feeds' filters, and keeps codes whose merged presence mask covers
// two or more feeds. Bloom false positives can only add codes that one feed
// genuinely carries, never invent codes absent from all feeds.
func collectAgreedCodes(ctx context.Context, feeds []string, filters []*bloom.BloomFilter) ([]string, error) {
	perFeed := make([]map[string]uint, len(feeds))

	g, ctx := errgroup.WithContext(ctx)
	for i, feed := range feeds {
		g.Go(func() error {
			hits := make(map[string]uint)
			bit := uint(1) << uint(i)
			var seen uint64

			err := scanFeed(ctx, feed, func(code string) {
				seen++
				if seen%progressEvery == 0 {
					slog.Info("pass 2 progress", slog.Int("feed", i+1), slog.Uint64("codes", seen))
				}
				for j, other := range filters {
					if j == i {
						continue
					}
					if other.TestString(code) {
						hits[code] |= bit
						break
					}
				}
			})
			if err != nil {
				return errors.Wrapf(err, "feed %d", i+1)
			}

			slog.Info("pass 2 feed done",
				slog.Int("feed", i+1),
				slog.Uint64("codes", seen),
				slog.Int("hits", len(hits)),
			)
			perFeed[i] = hits
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]uint)
	for _, hits := range perFeed {
		for code, mask := range hits {
			merged[code] |= mask
		}
	}

	var agreed []string
	for code, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			agreed = append(agreed, code)
		}
	}
	return agreed, nil
}

// scanFeed streams a gzipped feed line by line, skipping codes outside the
// valid length range.
func scanFeed(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		code := scanner.Text()
		if len(code) < minCodeLen || len(code) > maxCodeLen {
			continue
		}
		fn(code)
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

// loadRules upserts every agreed code as an active coupon rule.
func loadRules(ctx context.Context, repo *repository.CouponRepository, codes []string) error {
	slog.Info("writing coupon rules", slog.Int("count", len(codes)))

	for i, code := range codes {
		rule, ok := campaignRules[code]
		if !ok {
			rule = defaultRule
		}

		percent, err := decimal.NewFromString(rule.percent)
		if err != nil {
			return errors.Wrapf(err, "parse percent for %s", code)
		}

		if err := repo.Upsert(ctx, coupon.Rule{
			Code:        code,
			Percent:     percent,
			Description: rule.description,
		}); err != nil {
			return errors.Wrapf(err, "upsert %s", code)
		}

		if (i+1)%100 == 0 || i+1 == len(codes) {
			slog.Info("write progress", slog.Int("written", i+1), slog.Int("total", len(codes)))
		}
	}
	return nil
}
