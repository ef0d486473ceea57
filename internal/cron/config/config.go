package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Incoming-report journal retention, daily at 00:10
	CronScheduleLogRetention string `env:"CRON_SCHEDULE_LOG_RETENTION" envDefault:"0 10 0 * * *"`
	// Aggregate report retention, daily at 00:20
	CronScheduleReportRetention string `env:"CRON_SCHEDULE_REPORT_RETENTION" envDefault:"0 20 0 * * *"`
}
