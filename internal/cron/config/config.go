package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Mailbox poll, every 30 seconds
	CronScheduleMailboxPoll string `env:"CRON_SCHEDULE_MAILBOX_POLL" envDefault:"*/30 * * * * *"`
}
