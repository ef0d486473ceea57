package cron

import (
	"context"
	"sync"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"

	"github.com/customeros/dmarcstore/config"
	cron_config "github.com/customeros/dmarcstore/internal/cron/config"
	"github.com/customeros/dmarcstore/internal/enum"
	"github.com/customeros/dmarcstore/interfaces"
	"github.com/customeros/dmarcstore/internal/logger"
	"github.com/customeros/dmarcstore/internal/models"
	"github.com/customeros/dmarcstore/internal/tracing"
)

// GroupMaintenance serializes the retention jobs so the journal and report
// sweeps never overlap on one store.
const GroupMaintenance = "maintenance"

// LOCK MANAGEMENT
var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupMaintenance: new(sync.Mutex),
	},
}

type CronManager struct {
	cfg        *config.Config
	log        logger.Logger
	cron       *cronv3.Cron
	stopCh     chan struct{}
	jobIDs     map[string]cronv3.EntryID
	reports    interfaces.ReportRepository
	reportLogs interfaces.ReportLogRepository
}

func NewCronManager(cfg *config.Config, log logger.Logger, reports interfaces.ReportRepository, reportLogs interfaces.ReportLogRepository) *CronManager {
	return &CronManager{
		cfg:        cfg,
		log:        log,
		stopCh:     make(chan struct{}),
		jobIDs:     make(map[string]cronv3.EntryID),
		reports:    reports,
		reportLogs: reportLogs,
	}
}

// Start initializes and starts the cron manager.
func (cm *CronManager) Start() error {
	cm.StartCron()
	return nil
}

// Stop gracefully stops the cron manager
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		// Wait for jobs to finish
		<-ctx.Done()
	}
	close(cm.stopCh)
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	// Load cron config from environment variables
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

	// Register heartbeat job
	if cronConfig.CronScheduleHeartbeat != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Info("Cron heartbeat")
		})
		if err != nil {
			cm.log.Fatalf("Could not add heartbeat cron job: %v", err)
		}
		cm.jobIDs["heartbeat"] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cronConfig.CronScheduleHeartbeat)
	}

	// Incoming-report journal retention
	if cronConfig.CronScheduleLogRetention != "" && cm.cfg.Retention.LogDays > 0 {
		id, err := c.AddFunc(cronConfig.CronScheduleLogRetention, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupMaintenance].Lock()
			defer jobLocks.locks[GroupMaintenance].Unlock()
			cm.trimReportLog()
		})
		if err != nil {
			cm.log.Fatalf("Could not add report log retention cron job: %v", err)
		}
		cm.jobIDs["log_retention"] = id
		cm.log.Infof("Registered report log retention job with schedule: %s", cronConfig.CronScheduleLogRetention)
	}

	// Aggregate report retention
	if cronConfig.CronScheduleReportRetention != "" && cm.cfg.Retention.ReportDays > 0 {
		id, err := c.AddFunc(cronConfig.CronScheduleReportRetention, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupMaintenance].Lock()
			defer jobLocks.locks[GroupMaintenance].Unlock()
			cm.trimReports()
		})
		if err != nil {
			cm.log.Fatalf("Could not add report retention cron job: %v", err)
		}
		cm.jobIDs["report_retention"] = id
		cm.log.Infof("Registered report retention job with schedule: %s", cronConfig.CronScheduleReportRetention)
	}
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() {
	cm.log.Info("Starting cron manager")
	// Create a new cron with seconds field enabled and panic recovery
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger), // Skip if still running
			cronv3.Recover(cronv3.DefaultLogger),            // Default recovery as backup
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

func (cm *CronManager) trimReportLog() {
	cm.log.Info("Running report log retention")

	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.trimReportLog")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	before := models.Now().AddDate(0, 0, -cm.cfg.Retention.LogDays)
	filter := &interfaces.LogFilter{Before: before}
	page := interfaces.Page{Count: cm.cfg.Retention.Batch}

	var total int64
	for {
		deleted, err := cm.reportLogs.Delete(ctx, filter, enum.SortAscent, page)
		if err != nil {
			tracing.TraceErr(span, err)
			cm.log.Errorf("Failed to trim report log: %v", err)
			return
		}
		total += deleted
		if page.Count <= 0 || deleted < int64(page.Count) {
			break
		}
	}
	cm.log.Infof("Report log retention removed %d entries", total)
}

func (cm *CronManager) trimReports() {
	cm.log.Info("Running report retention")

	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.trimReports")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	before := models.Now().AddDate(0, 0, -cm.cfg.Retention.ReportDays)
	filter := &interfaces.ReportFilter{BeforeTime: before}
	sort := interfaces.ReportSort{Field: enum.SortByBeginTime, Direction: enum.SortAscent}
	page := interfaces.Page{Count: cm.cfg.Retention.Batch}

	var total int64
	for {
		deleted, err := cm.reports.Delete(ctx, filter, sort, page)
		if err != nil {
			tracing.TraceErr(span, err)
			cm.log.Errorf("Failed to trim reports: %v", err)
			return
		}
		total += deleted
		if page.Count <= 0 || deleted < int64(page.Count) {
			break
		}
	}
	cm.log.Infof("Report retention removed %d reports", total)
}
