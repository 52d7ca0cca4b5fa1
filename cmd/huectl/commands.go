package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/huectl/huectl/internal/bridge"
	"github.com/huectl/huectl/internal/config"
	"github.com/huectl/huectl/internal/discovery"
	"github.com/huectl/huectl/internal/tui"
)

// Command flags
var (
	bridgeLocation  string
	username        string
	discoverTimeout int
	useMDNS         bool
	deviceType      string
	pairWindow      int
)

func init() {
	// Common flags for bridge commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&bridgeLocation, "bridge", "", "Bridge description URL (skips discovery)")
	rootCmd.PersistentFlags().StringVar(&username, "user", "", "Registered username (defaults to the saved one)")
	rootCmd.PersistentFlags().IntVar(&discoverTimeout, "timeout", 5, "Discovery timeout in seconds")
	rootCmd.PersistentFlags().BoolVar(&useMDNS, "mdns", false, "Discover over mDNS instead of SSDP")

	// Add subcommands directly to root
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(pairCmd)
	rootCmd.AddCommand(lightsCmd)
	rootCmd.AddCommand(lightCmd)
}

// discoverCmd finds bridges on the network
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover bridges on the network",
	Long: `Discover lighting bridges using SSDP multicast search.

Bridges answer with the URL of their description document, which is then
fetched to obtain the bridge's name, model, and serial number. Discovered
bridges are remembered in the config file for later commands.

With --mdns the search uses DNS-SD (the _hue._tcp service) instead, which
some networks handle better than multicast UDP.`,
	Example: `  # Search for 5 seconds (default)
  huectl discover

  # Longer search for slow networks
  huectl discover --timeout 15

  # Use mDNS instead of SSDP
  huectl discover --mdns`,
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	fmt.Printf("Searching for bridges (timeout: %ds)...\n\n", discoverTimeout)

	bridges, err := discoverBridges()
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	if len(bridges) == 0 {
		fmt.Println("No bridges found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the bridge is powered on and on the same network")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Try --mdns if your network filters multicast UDP")
		fmt.Println("  - Use --bridge <description-url> to skip discovery entirely")
		return nil
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		return err
	}

	fmt.Printf("Found %d bridge(s):\n\n", len(bridges))

	for i, b := range bridges {
		fmt.Printf("%d. %s\n", i+1, b.Name())
		fmt.Printf("   Model:    %s\n", b.Device.ModelName)
		fmt.Printf("   Serial:   %s\n", b.Device.SerialNumber)
		fmt.Printf("   Location: %s\n", b.URLBase)
		fmt.Println()

		registry.Remember(b.Device.SerialNumber, b.Name(), b.URLBase)
	}

	if err := registry.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println("Use 'huectl pair' to register with a bridge")
	fmt.Println("Use 'huectl lights' to list lights on a paired bridge")

	return nil
}

// pairCmd registers a new username with a bridge
var pairCmd = &cobra.Command{
	Use:   "pair",
	Short: "Pair with a bridge",
	Long: `Register a new username with a bridge.

Registration requires a physical press of the bridge's link button. The
command keeps retrying while you walk over and press it, then saves the
assigned username in the config file so later commands can use it.`,
	Example: `  # Discover a bridge and pair with it
  huectl pair

  # Pair with a specific bridge
  huectl pair --bridge http://192.168.1.10:80/description.xml

  # Use a custom application identifier
  huectl pair --devicetype myapp#laptop`,
	RunE: runPair,
}

func init() {
	pairCmd.Flags().StringVar(&deviceType, "devicetype", "", "Application identifier sent to the bridge")
	pairCmd.Flags().IntVar(&pairWindow, "window", 30, "Seconds to keep retrying for a link button press")
}

func runPair(cmd *cobra.Command, args []string) error {
	b, err := selectBridge()
	if err != nil {
		return err
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		return err
	}

	devicetype := deviceType
	if devicetype == "" {
		devicetype = registry.Preferences.DeviceType
	}

	window := time.Duration(pairWindow) * time.Second

	var user string
	if term.IsTerminal(int(os.Stdout.Fd())) {
		user, err = pairInteractive(b, devicetype, window)
	} else {
		user, err = pairPlain(b, devicetype, window)
	}
	if err != nil {
		return err
	}

	entry := registry.Remember(b.Device.SerialNumber, b.Name(), b.URLBase)
	entry.Username = user
	if err := registry.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Paired with %s as %s\n", b.Name(), user)
	return nil
}

// pairInteractive runs the pairing TUI and returns the assigned username.
func pairInteractive(b *bridge.Bridge, devicetype string, window time.Duration) (string, error) {
	model := tui.NewPairModel(b, devicetype, window)

	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return "", fmt.Errorf("pairing flow error: %w", err)
	}

	result := final.(tui.PairModel)
	if result.Err != nil {
		return "", result.Err
	}
	return result.Username, nil
}

// pairPlain retries registration without a TUI, for non-interactive use.
func pairPlain(b *bridge.Bridge, devicetype string, window time.Duration) (string, error) {
	fmt.Printf("Press the link button on %s...\n", b.Name())

	deadline := time.Now().Add(window)
	for {
		user, err := b.RegisterUser(devicetype)
		if err == nil {
			return user, nil
		}

		var failure *bridge.APIFailure
		if !errors.As(err, &failure) || time.Now().After(deadline) {
			return "", err
		}
		time.Sleep(2 * time.Second)
	}
}

// lightsCmd lists all lights known to a bridge
var lightsCmd = &cobra.Command{
	Use:   "lights",
	Short: "List lights on a bridge",
	Long: `List all lights known to a bridge.

Requires a registered username, either from a previous 'huectl pair' or
supplied with --user.`,
	Example: `  # List lights on the saved bridge
  huectl lights

  # List lights with an explicit username
  huectl lights --bridge http://192.168.1.10:80/description.xml --user newdev01`,
	RunE: runLights,
}

func runLights(cmd *cobra.Command, args []string) error {
	b, user, err := authedBridge()
	if err != nil {
		return err
	}

	lights, err := b.Lights(user)
	if err != nil {
		return fmt.Errorf("failed to list lights: %w", err)
	}

	if len(lights) == 0 {
		fmt.Println("No lights found.")
		return nil
	}

	fmt.Printf("Found %d light(s) on %s:\n\n", len(lights), b.Name())

	for id, light := range lights {
		power := "off"
		if light.State.On {
			power = "on"
		}
		reach := ""
		if !light.State.Reachable {
			reach = " (unreachable)"
		}

		fmt.Printf("%s. %s%s\n", id, light.Name, reach)
		fmt.Printf("   Model:      %s (%s)\n", light.ModelID, light.Type)
		fmt.Printf("   State:      %s, brightness %d\n", power, light.State.Bri)
		if light.UniqueID != "" {
			fmt.Printf("   Unique ID:  %s\n", light.UniqueID)
		}
		fmt.Println()
	}

	return nil
}

// lightCmd groups single-light operations
var lightCmd = &cobra.Command{
	Use:   "light",
	Short: "Control a single light",
}

func init() {
	lightCmd.AddCommand(lightOnCmd)
	lightCmd.AddCommand(lightOffCmd)
	lightCmd.AddCommand(lightSetCmd)
}

var lightOnCmd = &cobra.Command{
	Use:   "on <id>",
	Short: "Turn a light on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSwitch(args[0], true)
	},
}

var lightOffCmd = &cobra.Command{
	Use:   "off <id>",
	Short: "Turn a light off",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSwitch(args[0], false)
	},
}

func runSwitch(id string, on bool) error {
	b, user, err := authedBridge()
	if err != nil {
		return err
	}

	if err := b.SwitchLight(user, id, on); err != nil {
		return fmt.Errorf("failed to switch light %s: %w", id, err)
	}

	state := "off"
	if on {
		state = "on"
	}
	fmt.Printf("Light %s is now %s\n", id, state)
	return nil
}

// lightSetCmd writes a single state attribute
var lightSetCmd = &cobra.Command{
	Use:   "set <id> <attribute> <value>",
	Short: "Set a light state attribute",
	Long: `Write a single attribute of a light's state.

The value is sent as a boolean if it parses as one, as a number if it
parses as an integer, and as a string otherwise.`,
	Example: `  # Set brightness
  huectl light set 1 bri 200

  # Set color temperature
  huectl light set 1 ct 366

  # Trigger a breathe alert
  huectl light set 1 alert lselect`,
	Args: cobra.ExactArgs(3),
	RunE: runLightSet,
}

func runLightSet(cmd *cobra.Command, args []string) error {
	b, user, err := authedBridge()
	if err != nil {
		return err
	}

	id, key := args[0], args[1]
	value := parseAttributeValue(args[2])

	if err := b.SetLightState(user, id, key, value); err != nil {
		return fmt.Errorf("failed to set %s on light %s: %w", key, id, err)
	}

	fmt.Printf("Light %s: %s = %v\n", id, key, value)
	return nil
}

// parseAttributeValue maps a command line argument onto the JSON type the
// bridge expects: bool, number, or string.
func parseAttributeValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return raw
}

// discoverBridges runs one discovery pass with the configured method and
// timeout.
func discoverBridges() ([]*bridge.Bridge, error) {
	timeout := time.Duration(discoverTimeout) * time.Second

	if useMDNS {
		scanner := discovery.NewScanner()
		scanner.Timeout = timeout

		ctx, cancel := context.WithTimeout(context.Background(), timeout+time.Second)
		defer cancel()
		return scanner.Scan(ctx)
	}

	return discovery.FindBridges(timeout)
}

// selectBridge resolves the bridge to operate on: the --bridge flag, then
// the saved default, then a fresh discovery pass.
func selectBridge() (*bridge.Bridge, error) {
	if bridgeLocation != "" {
		return bridge.FromDescriptionURL(bridgeLocation)
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, err
	}

	if serial := registry.Preferences.DefaultBridge; serial != "" {
		if entry, ok := registry.Bridges[serial]; ok && entry.Location != "" {
			location := strings.TrimRight(entry.Location, "/") + "/description.xml"
			return bridge.FromDescriptionURL(location)
		}
	}

	bridges, err := discoverBridges()
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}
	if len(bridges) == 0 {
		return nil, errors.New("no bridges found; try --timeout, --mdns, or --bridge <description-url>")
	}

	if len(bridges) > 1 {
		fmt.Printf("Found %d bridges, using %s\n", len(bridges), bridges[0].Name())
	}
	return bridges[0], nil
}

// authedBridge resolves the target bridge together with a username, from
// the --user flag or the saved registration.
func authedBridge() (*bridge.Bridge, string, error) {
	b, err := selectBridge()
	if err != nil {
		return nil, "", err
	}

	if username != "" {
		return b, username, nil
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, "", err
	}

	if user := registry.UsernameFor(b.Device.SerialNumber); user != "" {
		return b, user, nil
	}

	return nil, "", fmt.Errorf("no username saved for %s; run 'huectl pair' or pass --user", b.Name())
}
