package platform

// DefaultAppName is reported to the notification service when Options.AppName
// is empty.
const DefaultAppName = "jainscan"

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// AppName identifies the sender to the notification centre.
	AppName string
	// IconPath, when non-empty, points to an image file the notification center
	// should display with the notification if supported by the platform.
	IconPath string
	// Urgent asks the platform to make the notification stand out, used when
	// a label contains non-Jain ingredients.
	Urgent bool
}

func (o Options) appName() string {
	if o.AppName == "" {
		return DefaultAppName
	}
	return o.AppName
}
