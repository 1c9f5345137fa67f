package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/jypelle/ledtune/internal/srv"
	"github.com/jypelle/ledtune/internal/srv/config"
	"github.com/jypelle/ledtune/internal/srv/device"
	"github.com/jypelle/ledtune/internal/version"
	"github.com/sirupsen/logrus"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

const configSuffix = "ledtune"

func main() {

	// Logger
	logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true})

	mainCommand := filepath.Base(os.Args[0])

	// region Flags and Commands definition

	// Debug Mode
	debugMode := flag.Bool("d", false, "Enable debug mode")

	// Simulation Mode
	simulationMode := flag.Bool("s", false, "Enable simulation mode (no hardware, frames shown in a window)")

	// Display mode
	mode := flag.String("m", "", "Display mode: "+config.ModeNowPlaying+" or "+config.ModeScroller+" (overrides param file)")

	// User config dir
	defaultConfigDir := "./." + configSuffix
	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		defaultConfigDir = filepath.Join(userConfigDir, configSuffix)
	}
	configDir := flag.String("c", defaultConfigDir, "Location of ledtune config folder")

	// Usage
	flag.Usage = func() {
		fmt.Printf("\nUsage: %s [OPTIONS] [COMMAND]\n", mainCommand)
		fmt.Printf("\nAn LED matrix display for what is playing on Spotify, or any text\n")
		fmt.Printf("\nOptions:\n")
		flag.PrintDefaults()
		fmt.Printf("\nCommands:\n")
		fmt.Printf("  run       Run server\n")
		fmt.Printf("  auth      Authorize access to the Spotify player\n")
		fmt.Printf("  version   Show the version number\n")
		fmt.Printf("\nRun '%s COMMAND --help' for more information on a command.\n", mainCommand)
	}

	// run command
	runCmd := flag.NewFlagSet("run", flag.ExitOnError)

	runCmd.Usage = func() {
		fmt.Printf("\nUsage: %s run\n", mainCommand)
		fmt.Printf("\nRun the server\n")
	}

	// auth command
	authCmd := flag.NewFlagSet("auth", flag.ExitOnError)

	authCmd.Usage = func() {
		fmt.Printf("\nUsage: %s auth\n", mainCommand)
		fmt.Printf("\nAuthorize access to the Spotify player and cache the token in the config folder\n")
	}

	// version command
	versionCmd := flag.NewFlagSet("version", flag.ExitOnError)

	versionCmd.Usage = func() {
		fmt.Printf("\nUsage: %s version\n", mainCommand)
		fmt.Printf("\nShow the version information\n")
	}

	// endregion

	// region Flags and Commands Parsing
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	var cmd *flag.FlagSet
	switch flag.Arg(0) {
	case "run":
		cmd = runCmd
	case "auth":
		cmd = authCmd
	case "version":
		cmd = versionCmd
	default:
		fmt.Printf("\n%s is not a ledtune command\n", flag.Args()[0])
		flag.Usage()
		os.Exit(1)
	}
	cmd.Parse(flag.Args()[1:])
	if cmd.NArg() > 0 {
		fmt.Printf("\n\"%s %s\" accepts no arguments\n", mainCommand, flag.Arg(0))
		cmd.Usage()
		os.Exit(1)
	}
	// endregion

	if *debugMode {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true, TimestampFormat: time.RFC3339Nano})
		logrus.Printf("Debug mode activated")
	}

	switch {
	case versionCmd.Parsed():
		fmt.Printf("Version %s\n", version.AppVersion.String())
	case authCmd.Parsed():
		serverConfig := config.NewServerConfig(*configDir, *debugMode, *simulationMode, *mode)
		if serverConfig.SpotifyParam == nil || serverConfig.SpotifyParam.ClientId == "" {
			logrus.Fatalf("Set spotify client_id and client_secret in %s first", serverConfig.GetCompleteParamFilename())
		}
		err := device.SpotifyAuth(context.Background(), serverConfig.SpotifyParam, serverConfig.GetCompleteTokenFilename(), os.Stdin, os.Stdout)
		if err != nil {
			logrus.Fatalf("Spotify authorization failed: %v", err)
		}
	case runCmd.Parsed():
		logrus.Printf("ledtune %s", version.AppVersion.String())

		// Create ledtune server
		serverApp := srv.NewServerApp(*configDir, *debugMode, *simulationMode, *mode)

		// Listen stop signal
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)

		// Start ledtune server
		if err := serverApp.Start(); err != nil {
			logrus.Fatalf("Unable to start: %v", err)
		}

		select {
		case sig := <-ch:
			logrus.Infof("Received signal: %v", sig)
			serverApp.Stop()
		case err := <-serverApp.Fatal():
			logrus.Errorf("Render loop stopped: %v", err)
			serverApp.Stop()
			os.Exit(1)
		}
	}
}
