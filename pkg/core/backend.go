// Package core defines the contracts shared by the protocol adapters, the
// automation controller and the action backends.
package core

// Backend is the action backend facade: primitive operations against whatever
// is currently on screen. Every call re-resolves its locator; nothing is cached.
type Backend interface {
	// Resolution
	ResolveByText(text string) (bool, error)
	ResolveByID(resourceID string) (bool, error)
	ResolveByClass(className string) (bool, error)

	// Actions
	Click(loc Locator) error
	// SetText clears then sets the text of an editable node.
	// Returns ErrNotEditable if the node does not accept text.
	SetText(loc Locator, text string) error
	GetText(loc Locator) (string, error)
	DispatchGesture(g Gesture) error

	// Screen state
	CaptureScreen() ([]byte, error)
	DumpNodes(maxDepth int) ([]Node, error)
}

// KeyInjector injects key events directly. Usually requires elevated privilege.
type KeyInjector interface {
	InjectKey(code int) error
}

// KeyBroadcaster sends separate down and up events through the general event channel.
type KeyBroadcaster interface {
	KeyDown(code int) error
	KeyUp(code int) error
}

// TaskSwitcher brings the last known launcher task to the foreground.
type TaskSwitcher interface {
	BringLauncherToFront() error
}

// AppLauncher resolves and fires launch intents.
type AppLauncher interface {
	// ResolveLaunchIntent returns the launch intent of a package, or nil if it has none.
	ResolveLaunchIntent(pkg string) (*Intent, error)
	StartIntent(intent Intent) error
}

// ShellRunner executes a shell command line and reports its outcome.
// It never returns a Go error; failures are described by the ShellResult.
type ShellRunner interface {
	Run(cmd string) ShellResult
}

// LocatorStrategy identifies how a locator re-finds a node.
type LocatorStrategy string

// Locator strategies understood by backends.
const (
	ByID    LocatorStrategy = "id"
	ByText  LocatorStrategy = "text"
	ByClass LocatorStrategy = "class"
)

// Locator is a re-resolution recipe: how to find a node again on the current screen.
type Locator struct {
	Strategy LocatorStrategy `json:"strategy"`
	Value    string          `json:"value"`
}

// String returns "strategy=value".
func (l Locator) String() string {
	return string(l.Strategy) + "=" + l.Value
}

// Gesture is a single straight-line touch gesture.
type Gesture struct {
	StartX     int `json:"startX"`
	StartY     int `json:"startY"`
	EndX       int `json:"endX"`
	EndY       int `json:"endY"`
	DurationMs int `json:"durationMs"`
}

// Node describes one on-screen UI node.
type Node struct {
	ClassName   string `json:"className"`
	Text        string `json:"text"`
	Description string `json:"description"`
	ResourceID  string `json:"resourceId"`
	Package     string `json:"package,omitempty"`
	Clickable   bool   `json:"clickable"`
	Enabled     bool   `json:"enabled"`
	Focused     bool   `json:"focused"`
	Bounds      Bounds `json:"bounds"`
	Depth       int    `json:"depth"`
}

// Bounds represents element position and size
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Intent actions, categories and flags used by the gateway.
const (
	ActionMain       = "android.intent.action.MAIN"
	CategoryLauncher = "android.intent.category.LAUNCHER"
	CategoryHome     = "android.intent.category.HOME"

	FlagActivityNewTask = 0x10000000
)

// Intent describes an activity launch.
type Intent struct {
	Action     string   `json:"action,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Package    string   `json:"package,omitempty"`
	Activity   string   `json:"activity,omitempty"` // Empty means implicit
	Flags      int      `json:"flags,omitempty"`
}

// Component returns "package/activity", or "" when the intent is implicit.
func (i Intent) Component() string {
	if i.Package == "" || i.Activity == "" {
		return ""
	}
	return i.Package + "/" + i.Activity
}

// ShellResult is the outcome of a shell command.
type ShellResult struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	Err      error  `json:"-"` // Set when the command could not be started at all
}

// OK returns true if the command ran and exited with status 0.
func (r ShellResult) OK() bool {
	return r.Err == nil && r.ExitCode == 0
}
