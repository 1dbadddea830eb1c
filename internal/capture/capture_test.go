package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/timvw/hostshot/internal/model"
)

var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

// fakeRunner implements Runner. Programs not listed in handlers fail.
type fakeRunner struct {
	mu        sync.Mutex
	installed map[string]bool
	handlers  map[string]func(args []string, opts RunOpts) ([]byte, error)
	calls     []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args []string, opts RunOpts) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	f.mu.Unlock()
	h, ok := f.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%s exited with code 127: command not found", name)
	}
	return h(args, opts)
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if f.installed[name] {
		return "/usr/bin/" + name, nil
	}
	return "", exec.ErrNotFound
}

// writeLastArg writes data to the path given as the last argument.
func writeLastArg(data []byte) func([]string, RunOpts) ([]byte, error) {
	return func(args []string, _ RunOpts) ([]byte, error) {
		return nil, os.WriteFile(args[len(args)-1], data, 0o600)
	}
}

// fakeMethod implements Method with scripted behavior.
type fakeMethod struct {
	name      string
	applies   bool
	available bool
	capture   func(ctx context.Context, a *Artifact) error

	mu    sync.Mutex
	paths []string
}

func (m *fakeMethod) Name() string                        { return m.name }
func (m *fakeMethod) AppliesTo(model.Classification) bool { return m.applies }
func (m *fakeMethod) Available(context.Context) bool      { return m.available }

func (m *fakeMethod) Capture(ctx context.Context, a *Artifact) error {
	m.mu.Lock()
	m.paths = append(m.paths, a.Path)
	m.mu.Unlock()
	return m.capture(ctx, a)
}

func (m *fakeMethod) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.paths)
}

func writes(data []byte) func(context.Context, *Artifact) error {
	return func(_ context.Context, a *Artifact) error {
		return os.WriteFile(a.Path, data, 0o600)
	}
}

func fails(reason string) func(context.Context, *Artifact) error {
	return func(_ context.Context, a *Artifact) error {
		// Leave a partial file behind to check it gets cleaned up.
		_ = os.WriteFile(a.Path, []byte("partial"), 0o600)
		return &CaptureError{Method: "fake", Reason: reason}
	}
}

func newTestOrchestrator(t *testing.T, methods ...Method) (*Orchestrator, string) {
	t.Helper()
	dir := t.TempDir()
	r := NewRegistry()
	for _, m := range methods {
		r.Register(m)
	}
	return &Orchestrator{
		Registry:  r,
		Artifacts: NewArtifactManager(dir),
		Timeout:   time.Second,
	}, dir
}

func assertCleanDir(t *testing.T, o *Orchestrator, dir string) {
	t.Helper()
	if n := o.Artifacts.Outstanding(); n != 0 {
		t.Errorf("Outstanding() = %d, want 0", n)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("artifact dir has %d leftover files", len(entries))
	}
}

var x11Host = model.Classification{OS: "linux", Context: model.Native, Display: model.DisplayX11}

func TestOrchestrator_FirstSuccessWins(t *testing.T) {
	first := &fakeMethod{name: "first", applies: true, available: true, capture: writes(pngData)}
	second := &fakeMethod{name: "second", applies: true, available: true, capture: writes(pngData)}
	o, dir := newTestOrchestrator(t, first, second)

	res, err := o.Capture(context.Background(), x11Host, model.VariantScreen)
	if err != nil {
		t.Fatalf("Capture() error: %v", err)
	}
	if res.Method != "first" {
		t.Errorf("Method = %q, want %q", res.Method, "first")
	}
	if res.ContentType != "image/png" {
		t.Errorf("ContentType = %q, want image/png", res.ContentType)
	}
	if string(res.Data) != string(pngData) {
		t.Error("Data does not match what the method wrote")
	}
	if second.callCount() != 0 {
		t.Errorf("second method called %d times after success, want 0", second.callCount())
	}
	assertCleanDir(t, o, dir)
}

func TestOrchestrator_SkipsUnavailableAndFailed(t *testing.T) {
	missing := &fakeMethod{name: "missing", applies: true, available: false, capture: writes(pngData)}
	broken := &fakeMethod{name: "broken", applies: true, available: true, capture: fails("display refused")}
	notApplicable := &fakeMethod{name: "other-os", applies: false, available: true, capture: writes(pngData)}
	good := &fakeMethod{name: "good", applies: true, available: true, capture: writes(pngData)}
	o, dir := newTestOrchestrator(t, missing, broken, notApplicable, good)

	res, err := o.Capture(context.Background(), x11Host, model.VariantScreen)
	if err != nil {
		t.Fatalf("Capture() error: %v", err)
	}
	if res.Method != "good" {
		t.Errorf("Method = %q, want %q", res.Method, "good")
	}
	if missing.callCount() != 0 {
		t.Error("unavailable method must not be invoked")
	}
	if notApplicable.callCount() != 0 {
		t.Error("non-applicable method must not be invoked")
	}

	want := []Outcome{OutcomeUnavailable, OutcomeFailed, OutcomeSuccess}
	if len(res.Attempts) != len(want) {
		t.Fatalf("got %d attempts, want %d", len(res.Attempts), len(want))
	}
	for i, w := range want {
		if res.Attempts[i].Outcome != w {
			t.Errorf("attempt %d outcome = %q, want %q", i, res.Attempts[i].Outcome, w)
		}
	}
	if !errors.Is(res.Attempts[0].Err, ErrMethodUnavailable) {
		t.Errorf("unavailable attempt error = %v, want ErrMethodUnavailable", res.Attempts[0].Err)
	}
	assertCleanDir(t, o, dir)
}

func TestOrchestrator_AllFail(t *testing.T) {
	a := &fakeMethod{name: "a", applies: true, available: true, capture: fails("boom")}
	b := &fakeMethod{name: "b", applies: true, available: false}
	o, dir := newTestOrchestrator(t, a, b)

	res, err := o.Capture(context.Background(), x11Host, model.VariantScreen)
	if res != nil {
		t.Fatalf("Capture() result = %+v, want nil", res)
	}
	if !errors.Is(err, ErrNoCaptureAvailable) {
		t.Fatalf("Capture() error = %v, want ErrNoCaptureAvailable", err)
	}
	var nce *NoCaptureError
	if !errors.As(err, &nce) {
		t.Fatalf("error %T is not *NoCaptureError", err)
	}
	if len(nce.Attempts) != 2 {
		t.Errorf("got %d attempts, want 2", len(nce.Attempts))
	}
	var ce *CaptureError
	if !errors.As(nce.Attempts[0].Err, &ce) || ce.Reason != "boom" {
		t.Errorf("first attempt error = %v, want CaptureError with reason boom", nce.Attempts[0].Err)
	}
	if !strings.Contains(err.Error(), "a=failed") || !strings.Contains(err.Error(), "b=unavailable") {
		t.Errorf("error message %q should list attempts", err.Error())
	}
	assertCleanDir(t, o, dir)
}

func TestOrchestrator_NoApplicableMethods(t *testing.T) {
	o, _ := newTestOrchestrator(t, &fakeMethod{name: "mac", applies: false})
	headless := model.Classification{OS: "linux", Display: model.DisplayNone}

	_, err := o.Capture(context.Background(), headless, model.VariantScreen)
	if !errors.Is(err, ErrNoCaptureAvailable) {
		t.Fatalf("Capture() error = %v, want ErrNoCaptureAvailable", err)
	}
}

func TestOrchestrator_Timeout(t *testing.T) {
	hang := &fakeMethod{name: "hang", applies: true, available: true,
		capture: func(ctx context.Context, a *Artifact) error {
			<-ctx.Done()
			return ctx.Err()
		}}
	good := &fakeMethod{name: "good", applies: true, available: true, capture: writes(pngData)}
	o, dir := newTestOrchestrator(t, hang, good)
	o.Timeout = 20 * time.Millisecond

	res, err := o.Capture(context.Background(), x11Host, model.VariantScreen)
	if err != nil {
		t.Fatalf("Capture() error: %v", err)
	}
	if res.Attempts[0].Outcome != OutcomeTimeout {
		t.Errorf("first outcome = %q, want %q", res.Attempts[0].Outcome, OutcomeTimeout)
	}
	if res.Method != "good" {
		t.Errorf("Method = %q, want good", res.Method)
	}
	assertCleanDir(t, o, dir)
}

func TestOrchestrator_EmptyOutputIsFailure(t *testing.T) {
	empty := &fakeMethod{name: "empty", applies: true, available: true, capture: writes(nil)}
	o, dir := newTestOrchestrator(t, empty)

	_, err := o.Capture(context.Background(), x11Host, model.VariantScreen)
	if !errors.Is(err, ErrNoCaptureAvailable) {
		t.Fatalf("Capture() error = %v, want ErrNoCaptureAvailable", err)
	}
	assertCleanDir(t, o, dir)
}

func TestOrchestrator_CancelledContext(t *testing.T) {
	m := &fakeMethod{name: "m", applies: true, available: true, capture: writes(pngData)}
	o, _ := newTestOrchestrator(t, m)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := o.Capture(ctx, x11Host, model.VariantScreen); !errors.Is(err, context.Canceled) {
		t.Errorf("Capture() error = %v, want context.Canceled", err)
	}
	if m.callCount() != 0 {
		t.Error("no method should run on a cancelled context")
	}
}

func TestOrchestrator_ConcurrentRequestsUseDistinctPaths(t *testing.T) {
	m := &fakeMethod{name: "m", applies: true, available: true, capture: writes(pngData)}
	o, dir := newTestOrchestrator(t, m)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := o.Capture(context.Background(), x11Host, model.VariantScreen); err != nil {
				t.Errorf("Capture() error: %v", err)
			}
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, p := range m.paths {
		if seen[p] {
			t.Errorf("artifact path %s used twice", p)
		}
		seen[p] = true
	}
	assertCleanDir(t, o, dir)
}

func TestArtifactManager(t *testing.T) {
	dir := t.TempDir()
	m := NewArtifactManager(dir)

	a := m.Acquire()
	b := m.Acquire()
	if a.Path == b.Path {
		t.Fatal("Acquire() returned the same path twice")
	}
	if filepath.Dir(a.Path) != dir {
		t.Errorf("artifact dir = %s, want %s", filepath.Dir(a.Path), dir)
	}
	if !strings.HasPrefix(filepath.Base(a.Path), "hostshot-") || filepath.Ext(a.Path) != ".png" {
		t.Errorf("unexpected artifact name %s", filepath.Base(a.Path))
	}
	if _, err := os.Stat(a.Path); !os.IsNotExist(err) {
		t.Error("Acquire() must not create the file")
	}
	if m.Outstanding() != 2 {
		t.Errorf("Outstanding() = %d, want 2", m.Outstanding())
	}

	if err := os.WriteFile(a.Path, pngData, 0o600); err != nil {
		t.Fatal(err)
	}
	m.Release(a)
	m.Release(a) // idempotent
	m.Release(b) // never written
	m.Release(nil)

	if _, err := os.Stat(a.Path); !os.IsNotExist(err) {
		t.Error("Release() should remove the file")
	}
	if m.Outstanding() != 0 {
		t.Errorf("Outstanding() = %d, want 0", m.Outstanding())
	}
}

func TestRegistryOrderAndVariants(t *testing.T) {
	runner := &fakeRunner{}
	r, err := DefaultRegistry(Options{Runner: runner, Getenv: func(string) string { return "" }})
	if err != nil {
		t.Fatalf("DefaultRegistry() error: %v", err)
	}

	tests := []struct {
		name    string
		c       model.Classification
		variant model.Variant
		want    []string
	}{
		{
			name:    "macos",
			c:       model.Classification{OS: "darwin"},
			variant: model.VariantScreen,
			want:    []string{"screencapture"},
		},
		{
			name:    "windows screen",
			c:       model.Classification{OS: "windows"},
			variant: model.VariantScreen,
			want:    []string{"powershell"},
		},
		{
			name:    "windows compat uses the wsl bridge",
			c:       model.Classification{OS: "windows"},
			variant: model.VariantCompat,
			want:    []string{"wsl-bridge"},
		},
		{
			name:    "wsl with x11 tries the host first",
			c:       model.Classification{OS: "linux", Context: model.CompatibilityLayer, Display: model.DisplayX11},
			variant: model.VariantScreen,
			want:    []string{"wsl-host", "scrot", "gnome-screenshot", "import", "xwd"},
		},
		{
			name:    "wsl compat tries the host then the x11 tools",
			c:       model.Classification{OS: "linux", Context: model.CompatibilityLayer, Display: model.DisplayX11},
			variant: model.VariantCompat,
			want:    []string{"wsl-host", "scrot", "gnome-screenshot", "import", "xwd"},
		},
		{
			name:    "wsl compat with wayland",
			c:       model.Classification{OS: "linux", Context: model.CompatibilityLayer, Display: model.DisplayWayland},
			variant: model.VariantCompat,
			want:    []string{"wsl-host", "grim", "spectacle"},
		},
		{
			name:    "wayland",
			c:       model.Classification{OS: "linux", Display: model.DisplayWayland},
			variant: model.VariantScreen,
			want:    []string{"grim", "spectacle"},
		},
		{
			name:    "unknown display tries both families",
			c:       model.Classification{OS: "linux", Display: model.DisplayUnknown},
			variant: model.VariantScreen,
			want:    []string{"scrot", "gnome-screenshot", "import", "xwd", "grim", "spectacle"},
		},
		{
			name:    "headless linux has nothing",
			c:       model.Classification{OS: "linux", Display: model.DisplayNone},
			variant: model.VariantScreen,
			want:    nil,
		},
		{
			name:    "native linux compat uses the display tools",
			c:       model.Classification{OS: "linux", Display: model.DisplayX11},
			variant: model.VariantCompat,
			want:    []string{"scrot", "gnome-screenshot", "import", "xwd"},
		},
		{
			name:    "macos compat has nothing",
			c:       model.Classification{OS: "darwin"},
			variant: model.VariantCompat,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, m := range r.Select(tt.c, tt.variant) {
				got = append(got, m.Name())
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Select() = %v, want %v", got, tt.want)
			}
		})
	}

	if len(r.MethodsFor(model.Classification{OS: "windows"})) != 1 {
		t.Error("MethodsFor() should match Select with VariantScreen")
	}
}

func TestInspectAndCapabilityText(t *testing.T) {
	runner := &fakeRunner{installed: map[string]bool{"scrot": true}}
	r, err := DefaultRegistry(Options{Runner: runner, Getenv: func(string) string { return "" }})
	if err != nil {
		t.Fatalf("DefaultRegistry() error: %v", err)
	}
	c := model.Classification{OS: "linux", Display: model.DisplayX11, DisplayName: ":0"}

	statuses := r.Inspect(context.Background(), c)
	if len(statuses) != len(r.Methods()) {
		t.Fatalf("Inspect() returned %d rows, want %d", len(statuses), len(r.Methods()))
	}
	byName := map[string]MethodStatus{}
	for _, st := range statuses {
		byName[st.Name] = st
	}
	if st := byName["scrot"]; !st.Applies || !st.Available {
		t.Errorf("scrot = %+v, want applicable and available", st)
	}
	if st := byName["import"]; !st.Applies || st.Available {
		t.Errorf("import = %+v, want applicable but missing", st)
	}
	if st := byName["screencapture"]; st.Applies || st.Available {
		t.Errorf("screencapture = %+v, want not applicable", st)
	}

	text := CapabilityText(c, statuses)
	for _, want := range []string{"display=x11", "Display: :0", "✅ scrot (screen, compat)", "❌ import (screen, compat)"} {
		if !strings.Contains(text, want) {
			t.Errorf("CapabilityText() missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "screencapture") {
		t.Errorf("CapabilityText() should only list applicable methods:\n%s", text)
	}

	none := CapabilityText(model.Classification{OS: "linux"}, r.Inspect(context.Background(), model.Classification{OS: "linux"}))
	if !strings.Contains(none, "none apply") {
		t.Errorf("headless report = %q", none)
	}
}

func TestToolMethodCapture(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{
		installed: map[string]bool{"scrot": true},
		handlers:  map[string]func([]string, RunOpts) ([]byte, error){"scrot": writeLastArg(pngData)},
	}
	r, err := DefaultRegistry(Options{Runner: runner, X11Display: ":1", Getenv: func(string) string { return "" }})
	if err != nil {
		t.Fatal(err)
	}
	o := &Orchestrator{Registry: r, Artifacts: NewArtifactManager(dir)}

	res, err := o.Capture(context.Background(), x11Host, model.VariantScreen)
	if err != nil {
		t.Fatalf("Capture() error: %v", err)
	}
	if res.Method != "scrot" {
		t.Errorf("Method = %q, want scrot", res.Method)
	}
	if len(runner.calls) != 1 || !strings.HasPrefix(runner.calls[0], "scrot -o "+dir) {
		t.Errorf("calls = %v", runner.calls)
	}
}

func TestToolMethodEnv(t *testing.T) {
	var gotEnv []string
	runner := &fakeRunner{
		handlers: map[string]func([]string, RunOpts) ([]byte, error){
			"scrot": func(args []string, opts RunOpts) ([]byte, error) {
				gotEnv = opts.Env
				return nil, os.WriteFile(args[len(args)-1], pngData, 0o600)
			},
		},
	}

	tests := []struct {
		name    string
		agent   map[string]string
		wantEnv string
	}{
		{"default display when unset", map[string]string{}, "DISPLAY=:1"},
		{"agent display is kept", map[string]string{"DISPLAY": ":7"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotEnv = nil
			r, err := DefaultRegistry(Options{Runner: runner, X11Display: ":1", Getenv: func(k string) string { return tt.agent[k] }})
			if err != nil {
				t.Fatal(err)
			}
			scrot := r.Select(x11Host, model.VariantScreen)[0]
			a := &Artifact{Path: filepath.Join(t.TempDir(), "x.png")}
			if err := scrot.Capture(context.Background(), a); err != nil {
				t.Fatalf("Capture() error: %v", err)
			}
			if strings.Join(gotEnv, " ") != tt.wantEnv {
				t.Errorf("env = %v, want %q", gotEnv, tt.wantEnv)
			}
		})
	}
}

func TestToolMethodWithoutOutputFails(t *testing.T) {
	runner := &fakeRunner{
		handlers: map[string]func([]string, RunOpts) ([]byte, error){
			"grim": func([]string, RunOpts) ([]byte, error) { return nil, nil },
		},
	}
	m := &toolMethod{name: "grim", bin: "grim", args: []string{pathPlaceholder}, applies: appliesWayland, runner: runner}
	err := m.Capture(context.Background(), &Artifact{Path: filepath.Join(t.TempDir(), "none.png")})

	var ce *CaptureError
	if !errors.As(err, &ce) || ce.Reason != "no output file" {
		t.Errorf("Capture() error = %v, want CaptureError(no output file)", err)
	}
}

func TestXwdMethodPipesThroughConvert(t *testing.T) {
	runner := &fakeRunner{
		installed: map[string]bool{"xwd": true, "convert": true},
		handlers: map[string]func([]string, RunOpts) ([]byte, error){
			"xwd": func([]string, RunOpts) ([]byte, error) { return []byte("XWD-DUMP"), nil },
			"convert": func(args []string, opts RunOpts) ([]byte, error) {
				buf := make([]byte, 16)
				n, _ := opts.Stdin.Read(buf)
				if string(buf[:n]) != "XWD-DUMP" {
					return nil, fmt.Errorf("unexpected stdin %q", buf[:n])
				}
				return nil, os.WriteFile(strings.TrimPrefix(args[1], "png:"), pngData, 0o600)
			},
		},
	}
	m := &xwdMethod{runner: runner}
	if !m.Available(context.Background()) {
		t.Fatal("Available() = false with xwd and convert installed")
	}
	a := &Artifact{Path: filepath.Join(t.TempDir(), "x.png")}
	if err := m.Capture(context.Background(), a); err != nil {
		t.Fatalf("Capture() error: %v", err)
	}
}

func TestHostPassthrough(t *testing.T) {
	var script string
	var target string
	runner := &fakeRunner{
		installed: map[string]bool{"wslpath": true, "powershell.exe": true},
		handlers: map[string]func([]string, RunOpts) ([]byte, error){
			"wslpath": func(args []string, _ RunOpts) ([]byte, error) {
				target = args[1]
				return []byte(`\\wsl.localhost\Ubuntu\tmp\o'neil.png` + "\n"), nil
			},
			"powershell.exe": func(args []string, _ RunOpts) ([]byte, error) {
				script = args[len(args)-1]
				return nil, os.WriteFile(target, pngData, 0o600)
			},
		},
	}
	m := &hostPassthroughMethod{runner: runner}
	if !m.Available(context.Background()) {
		t.Fatal("Available() = false")
	}
	a := &Artifact{Path: filepath.Join(t.TempDir(), "x.png")}
	if err := m.Capture(context.Background(), a); err != nil {
		t.Fatalf("Capture() error: %v", err)
	}
	if !strings.Contains(script, `$bitmap.Save('\\wsl.localhost\Ubuntu\tmp\o''neil.png'`) {
		t.Errorf("script does not save to the quoted host path:\n%s", script)
	}
	if !strings.Contains(script, "CopyFromScreen") {
		t.Error("script does not copy the screen")
	}
}

func TestHostPassthroughUnavailableWithoutInterop(t *testing.T) {
	m := &hostPassthroughMethod{runner: &fakeRunner{installed: map[string]bool{"wslpath": true}}}
	if m.Available(context.Background()) {
		t.Error("Available() = true without powershell.exe")
	}
}

func TestParseTools(t *testing.T) {
	runner := &fakeRunner{}
	tools, err := parseTools([]string{
		"maim --hidecursor",
		`/opt/bin/shot --out "{path}" --quality 90`,
		"",
	}, nil, appliesX11, runner)
	if err != nil {
		t.Fatalf("parseTools() error: %v", err)
	}
	if len(tools) != 2 {
		t.Fatalf("got %d tools, want 2", len(tools))
	}
	if got := strings.Join(expandArgs(tools[0].args, "/tmp/a.png"), " "); got != "--hidecursor /tmp/a.png" {
		t.Errorf("maim args = %q", got)
	}
	if tools[1].name != "shot" || tools[1].bin != "/opt/bin/shot" {
		t.Errorf("tool name/bin = %q/%q", tools[1].name, tools[1].bin)
	}
	if got := strings.Join(expandArgs(tools[1].args, "/tmp/b.png"), " "); got != "--out /tmp/b.png --quality 90" {
		t.Errorf("shot args = %q", got)
	}

	if _, err := parseTools([]string{`broken "quote`}, nil, appliesX11, runner); err == nil {
		t.Error("parseTools() should reject unterminated quotes")
	}
}

func TestExtraToolsAreRegisteredAfterBuiltins(t *testing.T) {
	r, err := DefaultRegistry(Options{
		Runner:            &fakeRunner{},
		ExtraX11Tools:     []string{"maim"},
		ExtraWaylandTools: []string{"wayshot -f {path}"},
		Getenv:            func(string) string { return "" },
	})
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, m := range r.MethodsFor(model.Classification{OS: "linux", Display: model.DisplayUnknown}) {
		names = append(names, m.Name())
	}
	want := "scrot,gnome-screenshot,import,xwd,maim,grim,spectacle,wayshot"
	if strings.Join(names, ",") != want {
		t.Errorf("methods = %v, want %s", names, want)
	}
}

func TestMountPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{`C:\Users\me\AppData\Local\Temp\hostshot-1.png`, "/mnt/c/Users/me/AppData/Local/Temp/hostshot-1.png", false},
		{`D:/tmp/x.png`, "/mnt/d/tmp/x.png", false},
		{`\\server\share\x.png`, "", true},
		{"/tmp/x.png", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := mountPath(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("mountPath(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("mountPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCapStderr(t *testing.T) {
	if got := capStderr("  \n"); got != "(no stderr)" {
		t.Errorf("capStderr(blank) = %q", got)
	}
	long := strings.Repeat("e", maxStderr+10)
	if got := capStderr(long); len(got) != maxStderr+len("... (truncated)") {
		t.Errorf("capStderr(long) length = %d", len(got))
	}
}

func TestExecRunnerHonorsDeadlineWithChildren(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not installed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := ExecRunner{}.Run(ctx, "sh", []string{"-c", "sleep 4; true"}, RunOpts{})
	elapsed := time.Since(start)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want deadline exceeded", err)
	}
	if elapsed > 2500*time.Millisecond {
		t.Errorf("Run() returned after %v, want shortly after the 300ms deadline", elapsed)
	}
}

func TestWSLBridgeTriesToolsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	var tried []string
	runner := &fakeRunner{
		installed: map[string]bool{"wsl": true},
		handlers: map[string]func([]string, RunOpts) ([]byte, error){
			// args: -e env VAR=value tool ... path
			"wsl": func(args []string, _ RunOpts) ([]byte, error) {
				tool := args[3]
				tried = append(tried, tool)
				switch tool {
				case "scrot":
					_ = os.WriteFile(args[len(args)-1], []byte("half"), 0o600)
					return nil, errors.New("wsl exited with code 2: can't open display")
				case "grim":
					if args[2] != "WAYLAND_DISPLAY=wayland-1" {
						return nil, fmt.Errorf("grim got %q", args[2])
					}
					return nil, os.WriteFile(args[len(args)-1], pngData, 0o600)
				}
				return nil, fmt.Errorf("wsl exited with code 127: %s: not found", tool)
			},
		},
	}
	bridge := &wslBridgeMethod{
		tools:   bridgeTools(":0", "wayland-1"),
		runner:  runner,
		toLinux: func(p string) (string, error) { return p, nil },
	}

	if err := bridge.Capture(context.Background(), &Artifact{Path: path}); err != nil {
		t.Fatalf("Capture() error: %v", err)
	}
	if strings.Join(tried, ",") != "scrot,gnome-screenshot,import,grim" {
		t.Errorf("tools tried = %v, want scrot,gnome-screenshot,import,grim", tried)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != string(pngData) {
		t.Errorf("artifact = %q, %v; want the grim output", data, err)
	}
}

func TestWSLBridgeReportsEveryToolFailure(t *testing.T) {
	bridge := &wslBridgeMethod{
		tools:   bridgeTools(":0", "wayland-0"),
		runner:  &fakeRunner{installed: map[string]bool{"wsl": true}},
		toLinux: func(p string) (string, error) { return p, nil },
	}
	err := bridge.Capture(context.Background(), &Artifact{Path: filepath.Join(t.TempDir(), "x.png")})
	var ce *CaptureError
	if !errors.As(err, &ce) || ce.Method != "wsl-bridge" {
		t.Fatalf("Capture() error = %v, want a wsl-bridge CaptureError", err)
	}
	for _, tool := range []string{"scrot", "gnome-screenshot", "import", "grim"} {
		if !strings.Contains(err.Error(), tool) {
			t.Errorf("error %q does not mention %s", err, tool)
		}
	}
}

func TestWSLBridgeArgs(t *testing.T) {
	tools := bridgeTools(":1", "wayland-0")
	got := strings.Join(expandArgs(tools[0].args, "/mnt/c/x.png"), " ")
	if got != "env DISPLAY=:1 scrot -o /mnt/c/x.png" {
		t.Errorf("scrot args = %q", got)
	}
	got = strings.Join(expandArgs(tools[3].args, "/mnt/c/x.png"), " ")
	if got != "env WAYLAND_DISPLAY=wayland-0 grim /mnt/c/x.png" {
		t.Errorf("grim args = %q", got)
	}
}
