package envfile

// Keys of the environment record shared by the compose template, the
// collector and the post-provision stage.
const (
	Domain            = "DOMAIN"
	ACMEEmail         = "ACME_EMAIL"
	TimeZone          = "TZ"
	AdminUser         = "NEXTCLOUD_ADMIN_USER"
	AdminPassword     = "NEXTCLOUD_ADMIN_PASSWORD"
	DBName            = "MYSQL_DATABASE"
	DBUser            = "MYSQL_USER"
	DBPassword        = "MYSQL_PASSWORD"
	DBRootPassword    = "MYSQL_ROOT_PASSWORD"
	RedisPassword     = "REDIS_HOST_PASSWORD"
	SignalingSecret   = "SIGNALING_SECRET"
	TurnSecret        = "TURN_SECRET"
	DashboardUser     = "TRAEFIK_DASHBOARD_USER"
	DashboardPassword = "TRAEFIK_DASHBOARD_PASSWORD"
	PhoneRegion       = "DEFAULT_PHONE_REGION"
	NotificationURL   = "WATCHTOWER_NOTIFICATION_URL"
)
