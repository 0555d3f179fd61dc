package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stockboard/app/cfg"
	"stockboard/app/database"
	"stockboard/app/dataset"
	"stockboard/app/loader"
	"stockboard/app/news"
	"stockboard/app/stock"
	"stockboard/app/updater"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	configCache *dataset.ConfigCache
	stockRepo   database.StockRepository
	newsRepo    database.NewsRepository
	tables      *stock.Tables
	loader      *loader.Loader
	fetcher     *news.Fetcher
	extractor   *news.ContentExtractor
	updater     *updater.Updater
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface

	mu         sync.Mutex
	nextLoadAt map[string]time.Time
	nextNewsAt map[string]time.Time
}

func NewScheduler(configCache *dataset.ConfigCache, stockRepo database.StockRepository,
	newsRepo database.NewsRepository, tables *stock.Tables, ldr *loader.Loader,
	fetcher *news.Fetcher, extractor *news.ContentExtractor, upd *updater.Updater) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		configCache: configCache,
		stockRepo:   stockRepo,
		newsRepo:    newsRepo,
		tables:      tables,
		loader:      ldr,
		fetcher:     fetcher,
		extractor:   extractor,
		updater:     upd,
		interval:    time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount: cfg.WorkerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
		nextLoadAt:  make(map[string]time.Time),
		nextNewsAt:  make(map[string]time.Time),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	configs := s.configCache.GetEnabledConfigs()
	if len(configs) == 0 {
		slog.Debug("No enabled dataset configurations found")
		return
	}

	slog.Debug("Loading datasets at startup", "count", len(configs))

	now := time.Now().UTC()
	for _, config := range configs {
		s.scheduleLoad(config, now)
	}
}

func (s *Scheduler) enqueueTasks() {
	configs := s.configCache.GetEnabledConfigs()
	if len(configs) == 0 {
		return
	}

	now := time.Now().UTC()
	for _, config := range configs {
		s.mu.Lock()
		loadDue := !s.nextLoadAt[config.Name].After(now)
		newsDue := config.News.Enabled && !s.nextNewsAt[config.Name].After(now)
		s.mu.Unlock()

		if loadDue {
			s.scheduleLoad(config, now)
		}

		if newsDue {
			s.scheduleNews(config, now)
		}
	}
}

func (s *Scheduler) scheduleLoad(config *dataset.Config, now time.Time) {
	task := NewLoadDatasetTask(config, s.loader, s.stockRepo, s.tables)
	if err := s.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue LoadDatasetTask", "dataset", config.Name, "error", err)
		return
	}

	s.mu.Lock()
	s.nextLoadAt[config.Name] = now.Add(time.Duration(config.Settings.RefreshInterval) * time.Second)
	s.mu.Unlock()
}

func (s *Scheduler) scheduleNews(config *dataset.Config, now time.Time) {
	fetchTask := NewFetchNewsTask(config, s.fetcher, s.stockRepo, s.newsRepo, s.tables)
	if err := s.EnqueueTask(fetchTask); err != nil {
		slog.Warn("Failed to enqueue FetchNewsTask", "dataset", config.Name, "error", err)
		return
	}

	if config.News.ExtractContent {
		extractTask := NewExtractContentTask(config, s.fetcher, s.extractor, s.newsRepo)
		if err := s.EnqueueTask(extractTask); err != nil {
			slog.Warn("Failed to enqueue ExtractContentTask", "dataset", config.Name, "error", err)
		}
	}

	s.mu.Lock()
	s.nextNewsAt[config.Name] = now.Add(time.Duration(config.News.FetchInterval) * time.Second)
	s.mu.Unlock()
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "dataset", task.GetDatasetName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
