package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	issueguard "github.com/mccescario1995/issueguard"
	"github.com/mccescario1995/issueguard/lockservice"
)

func main() {
	var (
		issues      = flag.Int("issues", 1000, "number of issues to contend over")
		concurrency = flag.Int("concurrency", 128, "number of concurrent editors")
		ops         = flag.Int("ops", 100000, "operations per phase (status + acquire/release)")
		heartbeats  = flag.Int("heartbeats", 3, "heartbeats sent per held lock")
		lease       = flag.Duration("lease", 90*time.Second, "lock lease TTL")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "ig", "lock key prefix")
	)
	flag.Parse()

	if *issues <= 0 || *concurrency <= 0 || *ops <= 0 || *heartbeats < 0 {
		fmt.Fprintln(os.Stderr, "issues, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	locks, err := lockservice.NewRedis(client, *prefix, *lease)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build lock service: %v\n", err)
		os.Exit(1)
	}

	statusStats := runStatusPhase(ctx, locks, *issues, *ops, *concurrency)
	lockStats, conflicts := runLockPhase(ctx, locks, *issues, *ops, *concurrency, *heartbeats)

	fmt.Println("---- results ----")
	printStats("status", statusStats)
	printStats("lock-cycle", lockStats)
	fmt.Printf("lock-cycle conflicts: %d\n", conflicts)
}

func runStatusPhase(ctx context.Context, locks *lockservice.Redis, issues, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				issueID := int64(r.Intn(issues) + 1)
				t0 := time.Now()
				_, err := locks.Status(ctx, issueID)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

// runLockPhase measures a full acquire -> heartbeat* -> release cycle per op.
// A conflict counts as a completed op, not a failure; contention is the point.
func runLockPhase(ctx context.Context, locks *lockservice.Redis, issues, ops, concurrency, heartbeats int) (phaseStats, int64) {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		conflicts int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			owner := issueguard.LockHolder{
				UserID:   int64(worker + 1),
				Username: fmt.Sprintf("editor-%d", worker+1),
			}
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				issueID := int64(r.Intn(issues) + 1)

				t0 := time.Now()
				err := locks.Acquire(ctx, issueID, owner)
				if err == nil {
					for h := 0; h < heartbeats; h++ {
						if hbErr := locks.Heartbeat(ctx, issueID, owner); hbErr != nil {
							atomic.AddInt64(&failures, 1)
							break
						}
					}
					if relErr := locks.Release(ctx, issueID, owner); relErr != nil {
						atomic.AddInt64(&failures, 1)
					}
				} else {
					var conflict *issueguard.ConflictError
					if errors.As(err, &conflict) {
						atomic.AddInt64(&conflicts, 1)
					} else {
						atomic.AddInt64(&failures, 1)
					}
				}
				d := time.Since(t0)

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures), conflicts
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
