package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/awesome-gocui/gocui"
	"github.com/gethiox/middleclick/internal/pkg/config"
	"github.com/gethiox/middleclick/internal/pkg/gesture"
	"github.com/gethiox/middleclick/internal/pkg/ignore"
	"github.com/gethiox/middleclick/internal/pkg/logger"
	"github.com/gethiox/middleclick/internal/pkg/output"
	"github.com/gethiox/middleclick/internal/pkg/utils"
	"github.com/logrusorgru/aurora"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func handleSigs(wg *sync.WaitGroup, sigs <-chan os.Signal, cancel func(), server *http.Server, closeUI func()) {
	defer wg.Done()
	var counter int
	for sig := range sigs {
		if counter > 0 {
			fmt.Println("Dirty exit")
			os.Exit(1)
		}
		log.Info(fmt.Sprintf("signal received: %v", sig), logger.Debug)
		cancel()
		if server != nil {
			err := server.Close()
			if err != nil {
				log.Info(fmt.Sprintf("failed to close server: %v", err), logger.Warning)
			}
		}
		closeUI()
		counter++
	}
}

// runUI starts debug ui, returned func closes it and may be called many times.
// Leaving the ui cancels the program.
func runUI(cfg MiddleClickConfig, ui bool, cancel func()) (*gocui.Gui, func()) {
	if !ui {
		return nil, func() {}
	}
	g, err := GetCli()
	if err != nil {
		panic(err)
	}

	var once sync.Once
	closeUI := func() {
		once.Do(g.Close)
	}

	go func() {
		err := g.MainLoop()
		if err != nil && err != gocui.ErrQuit {
			log.Info(fmt.Sprintf("ui failed: %v", err), logger.Error)
		}
		closeUI()
		cancel()
	}()

	go func() {
		for {
			g.Update(Layout)
			time.Sleep(cfg.UI.LogViewRate)
		}
	}()

	time.Sleep(time.Millisecond * 500) // waiting for view init
	return g, closeUI
}

func runProfileServer(wg *sync.WaitGroup) *http.Server {
	var server *http.Server
	if *profile {
		addr := "127.0.0.1:8080"
		log.Info(fmt.Sprintf("profiling enabled and hosted on %s", addr), logger.Info)
		server = &http.Server{Addr: addr, Handler: nil}
		wg.Add(1)
		go func() {
			log.Info(fmt.Sprintf("profiling server exited: %v", server.ListenAndServe()), logger.Info)
			wg.Done()
		}()
	}
	return server
}

// printLogs writes log messages to stdout until logger.Messages is closed
func printLogs(wg *sync.WaitGroup) {
	defer wg.Done()
	if *silent {
		for range logger.Messages {
		}
		return
	}

	fmt.Printf("for nicer output use -ui flag\n")
	au := aurora.NewAurora(!*nocolor)
	for data := range logger.Messages {
		msg, err := unpack(data)
		if err != nil {
			fmt.Printf("%s\n", string(data))
			continue
		}
		m := prepareString(msg, au, -1, *logLevel)
		if m != "" {
			fmt.Printf("%s\n", m)
		}
	}
}

// loadSettings reads gestures file, defaults are used when it is broken
func loadSettings(path string) *config.Settings {
	s, err := config.ReadSettings(path)
	if err != nil {
		log.Info(fmt.Sprintf("cannot load gesture settings, using defaults: %v", err), logger.Error)
		return config.DefaultSettings()
	}
	return s
}

func warnConflicts(s *config.Settings) {
	if s.Fingers == 3 && s.ThreeFingerSwipe {
		log.Info("three-finger swipe is enabled together with three-finger middle click, "+
			"a tap or click that moves too far may end up as a swipe", logger.Warning)
	}
}

var (
	profile   = flag.Bool("profile", false, "runs web server for performance profiling (go tool pprof)")
	noGrab    = flag.Bool("nograb", false, "do not grab pointer devices, only tap gestures will work")
	ui        = flag.Bool("ui", false, "engage debug ui")
	force256  = flag.Bool("256", false, "force 256 color mode")
	nocolor   = flag.Bool("nocolor", false, "disable color")
	configDst = flag.String("config", ".", "directory where config directory is located (created if missing)")
	logLevel  = flag.Int("loglevel", 1,
		"logging level, each level enables additional information class (0-3, default: 1)\n"+
			"\navailable options:\n"+
			"0: general info (eg. device appearance status, settings changes)\n"+
			"1: performed gestures (middle click, swipes, shortcut)\n"+
			"2: physical button events altered by gestures\n"+
			"3: touch frames, very verbose",
	)
	silent      = flag.Bool("silent", false, "no output logging, best performance")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Printf("middleclick %s\n", version)
		return
	}
	*logLevel += 2

	if *force256 {
		os.Setenv("TERM", "xterm-256color")
	}

	// logs are consumed from the very beginning, otherwise early messages are lost
	var printer = sync.WaitGroup{}
	var uiMode = *ui && !*silent
	if !uiMode {
		printer.Add(1)
		go printLogs(&printer)
	}

	err := createConfigDirectoryIfNeeded(*configDst)
	if err != nil {
		log.Info(fmt.Sprintf("config directory preparation failed: %v", err), logger.Error)
	}

	cfg, err := LoadMiddleClickConfig(filepath.Join(*configDst, configDir, "middleclick.config"))
	if err != nil {
		log.Info(fmt.Sprintf("config load failed: %v", err), logger.Error)
		close(logger.Messages)
		printer.Wait()
		os.Exit(1)
	}
	log.Info(fmt.Sprintf("config: %+v", cfg), logger.Debug)
	grab := cfg.MiddleClick.Grab && !*noGrab

	var sigs = make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())

	g, closeUI := runUI(cfg, uiMode, cancel)

	// this wait-group has to be propagated everywhere where usual logging appear
	wg := sync.WaitGroup{}

	server := runProfileServer(&wg)

	wg.Add(1)
	go handleSigs(&wg, sigs, cancel, server, closeUI)

	settings := loadSettings(cfg.Gestures.File)
	warnConflicts(settings)
	store := config.NewStore(settings)
	store.OnChange(func(c config.Change) {
		switch c.Field {
		case "fingers", "three_finger_swipe":
			warnConflicts(c.Settings)
		}
	})

	pointer, err := output.NewPointer(store)
	if err != nil {
		log.Info(fmt.Sprintf("cannot create virtual pointer (is uinput available?): %v", err), logger.Error)
		cancel()
		signal.Stop(sigs)
		close(sigs)
		closeUI()
		wg.Wait()
		close(logger.Messages)
		printer.Wait()
		os.Exit(1)
	}

	checker := ignore.NewChecker(store)
	watcher := ignore.NewWatcher(checker, nil)
	wg.Add(1)
	go func() {
		defer wg.Done()
		watcher.Run(ctx, cfg.MiddleClick.FocusPollRate)
	}()

	engine, err := gesture.NewEngine(store, checker, pointer, cfg.MiddleClick.QueueSize)
	if err != nil {
		panic(err)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = engine.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		err := config.Watch(ctx, store, cfg.Gestures.File)
		if err != nil {
			log.Info(fmt.Sprintf("gesture settings will not be reloaded: %v", err), logger.Warning)
		}
	}()

	actions := utils.NewDynamicFanOut(engine.Actions())
	var performed = make(map[gesture.Action]int)
	_, counted, err := actions.SpawnOutput()
	if err != nil {
		panic(err)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for a := range counted {
			performed[a]++
		}
	}()

	devices := newRegistry()
	if uiMode {
		_, recent, err := actions.SpawnOutput()
		if err != nil {
			panic(err)
		}
		go logView(g, !*nocolor, *logLevel, cfg.UI.LogBufferSize, cfg.UI.LogViewRate)
		go overviewView(g, !*nocolor, devices, ctx.Done())
		go engineView(g, !*nocolor, engine, recent)
	}

	log.Info(fmt.Sprintf("middleclick %s started", version), zap.String("mode", string(settings.Mode)), logger.Info)
	runManager(ctx, cfg, grab, engine, pointer, devices)

	log.Info("waiting...", logger.Debug)
	signal.Stop(sigs)
	close(sigs)
	closeUI()
	wg.Wait()

	err = pointer.Close()
	if err != nil {
		log.Info(fmt.Sprintf("closing virtual pointer failed: %v", err), logger.Debug)
	}

	// closing logger can be safely invoked only when all internally running goroutines (that may emit logs) are done
	close(logger.Messages)
	printer.Wait()

	if !*silent {
		fmt.Printf("gestures performed: %d middle clicks, %d forward, %d backward, %d shortcuts\n",
			performed[gesture.MiddleClick], performed[gesture.SwipeForward],
			performed[gesture.SwipeBackward], performed[gesture.FourFingerShortcut],
		)
	}
}
