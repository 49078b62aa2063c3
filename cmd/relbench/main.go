package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/d60-Lab/snapgram/config"
	"github.com/d60-Lab/snapgram/internal/model"
	"github.com/d60-Lab/snapgram/internal/repository"
	"github.com/d60-Lab/snapgram/internal/service"
	"github.com/d60-Lab/snapgram/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))

	followRepo := repository.NewFollowRepository(db)
	fanRepo := repository.NewFanRepository(db)
	replicator := service.NewFanReplicator(fanRepo, 100000, 0)
	stop := replicator.Start(8)
	relSvc := service.NewRelationshipService(followRepo, fanRepo, replicator, nil)

	ctx := context.Background()

	N := envInt("N", 10000)
	CONC := envInt("CONC", 1)
	PAGE := envInt("PAGE", 50)

	// seed users: u0 is celebrity; others follow u0
	celeb := model.User{Username: "celeb", Name: "celeb", Email: "celeb@example.com", Password: "p"}
	_ = db.Where("username = ?", celeb.Username).FirstOrCreate(&celeb).Error
	users := make([]model.User, N)
	for i := 0; i < N; i++ {
		users[i] = model.User{
			Username: fmt.Sprintf("bench-u%06d", i),
			Name:     fmt.Sprintf("bench-u%06d", i),
			Email:    fmt.Sprintf("bench-u%06d@example.com", i),
			Password: "p",
		}
	}
	batch := 1000
	for i := 0; i < N; i += batch {
		end := i + batch
		if end > N {
			end = N
		}
		sub := users[i:end]
		_ = db.Create(&sub).Error
	}

	// measure async path (follow + async fan redundancy) with concurrency
	asyncRecs := make([]time.Duration, 0, N)
	asyncCh := make(chan time.Duration, N)

	maxQ := 0
	quitSample := make(chan struct{})
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if q := replicator.QueueLen(); q > maxQ {
					maxQ = q
				}
			case <-quitSample:
				return
			}
		}
	}()

	t0 := time.Now()
	workers := CONC
	if workers > N {
		workers = N
	}
	doneCh := make(chan struct{}, workers)
	feed := make(chan int, N)
	for i := 0; i < N; i++ {
		feed <- i
	}
	close(feed)
	for w := 0; w < workers; w++ {
		go func() {
			for i := range feed {
				st := time.Now()
				_, _ = relSvc.Follow(ctx, users[i].ID, celeb.ID, model.StatusFollow)
				asyncCh <- time.Since(st)
			}
			doneCh <- struct{}{}
		}()
	}
	for w := 0; w < workers; w++ {
		<-doneCh
	}
	close(asyncCh)
	for d := range asyncCh {
		asyncRecs = append(asyncRecs, d)
	}
	asyncDur := time.Since(t0)
	close(quitSample)

	// measure sync path (2 writes)
	t1 := time.Now()
	for i := 0; i < N; i++ {
		_, _, _ = followRepo.FindOrCreate(ctx, celeb.ID, users[i].ID, model.StatusFollow)
		_ = fanRepo.Create(ctx, users[i].ID, celeb.ID)
	}
	syncDur := time.Since(t1)

	// queries
	q0 := time.Now()
	_, _ = fanRepo.ListFans(ctx, celeb.ID, 0, PAGE)
	fansDur := time.Since(q0)

	q1 := time.Now()
	_, _ = followRepo.ListFollowing(ctx, celeb.ID, 0, PAGE)
	follDur := time.Since(q1)

	_ = stop(context.Background())

	pct := func(vs []time.Duration, p float64) time.Duration {
		if len(vs) == 0 {
			return 0
		}
		xs := append([]time.Duration(nil), vs...)
		sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
		k := int(math.Ceil(p*float64(len(xs)))) - 1
		if k < 0 {
			k = 0
		}
		if k >= len(xs) {
			k = len(xs) - 1
		}
		return xs[k]
	}

	fmt.Printf("N=%d, CONC=%d, PAGE=%d\n", N, CONC, PAGE)
	fmt.Printf("Async follow latency total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
		asyncDur, asyncDur/time.Duration(N), pct(asyncRecs, 0.50), pct(asyncRecs, 0.95), pct(asyncRecs, 0.99))
	fmt.Printf("Sync (2 writes) total: %v, per op: %v\n", syncDur, syncDur/time.Duration(N))
	fmt.Printf("Query fans(%d) latency: %v\n", PAGE, fansDur)
	fmt.Printf("Query following(%d) latency: %v, maxQueue=%d\n", PAGE, follDur, maxQ)
}
