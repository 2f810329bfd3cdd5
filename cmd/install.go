package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jfmyers9/scrobblesync/internal/daemon"
	"github.com/spf13/cobra"
)

// installCmd represents the install command
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the sync daemon as a launchd agent",
	Long: `Install the scrobblesync daemon as a launchd agent that runs automatically on login.

This command will:
  - Generate a launchd plist that runs 'scrobblesync daemon'
  - Install it to ~/Library/LaunchAgents/
  - Load the agent with launchctl

The daemon keeps the local database in step with Last.fm, syncing on the
interval configured as sync.interval.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Get the path to the current executable
		binaryPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}

		// Resolve symlinks to get the actual binary path
		binaryPath, err = filepath.EvalSymlinks(binaryPath)
		if err != nil {
			return fmt.Errorf("failed to resolve executable path: %w", err)
		}

		// Get the log path
		logPath, err := daemon.GetDefaultLogPath()
		if err != nil {
			return fmt.Errorf("failed to get log path: %w", err)
		}

		// Create log directory if it doesn't exist
		if err := os.MkdirAll(logPath, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		// Get home directory for working directory
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		// Generate plist
		config := daemon.PlistConfig{
			BinaryPath:       binaryPath,
			LogPath:          logPath,
			LogLevel:         logLevel,
			WorkingDirectory: home,
		}

		plistContent, err := daemon.GeneratePlist(config)
		if err != nil {
			return fmt.Errorf("failed to generate plist: %w", err)
		}

		// Get plist path
		plistPath, err := daemon.GetPlistPath()
		if err != nil {
			return fmt.Errorf("failed to get plist path: %w", err)
		}

		// Create LaunchAgents directory if it doesn't exist
		launchAgentsDir := filepath.Dir(plistPath)
		if err := os.MkdirAll(launchAgentsDir, 0755); err != nil {
			return fmt.Errorf("failed to create LaunchAgents directory: %w", err)
		}

		// Check if plist already exists
		if _, err := os.Stat(plistPath); err == nil {
			fmt.Println("Daemon is already installed. Uninstalling first...")
			// Try to unload the existing daemon
			if err := unloadDaemon(); err != nil {
				fmt.Printf("Warning: failed to unload existing daemon: %v\n", err)
			}
		}

		// Write plist file
		if err := os.WriteFile(plistPath, []byte(plistContent), 0644); err != nil {
			return fmt.Errorf("failed to write plist file: %w", err)
		}

		fmt.Printf("✓ Installed plist to %s\n", plistPath)

		// Load the daemon with launchctl
		if err := loadDaemon(plistPath); err != nil {
			return fmt.Errorf("failed to load daemon: %w", err)
		}

		fmt.Println("✓ Daemon loaded and started successfully")
		fmt.Printf("✓ Logs will be written to %s\n", logPath)
		fmt.Println("\nThe scrobblesync daemon is now running and will start automatically on login.")
		fmt.Println("\nYou can check the daemon status with:")
		fmt.Printf("  launchctl print %s/%s\n", launchdDomain(), daemon.Label)
		fmt.Println("\nTo uninstall, run:")
		fmt.Println("  scrobblesync uninstall")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}

// launchdDomain returns the per-user GUI domain, e.g. gui/501.
func launchdDomain() string {
	return fmt.Sprintf("gui/%d", os.Getuid())
}

// loadDaemon loads the daemon using launchctl
func loadDaemon(plistPath string) error {
	cmd := exec.Command("launchctl", "bootstrap", launchdDomain(), plistPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if out := strings.TrimSpace(string(output)); out != "" {
			return fmt.Errorf("launchctl bootstrap failed: %s", out)
		}
		return fmt.Errorf("failed to run launchctl bootstrap: %w", err)
	}

	return nil
}

// unloadDaemon unloads the daemon using launchctl. An agent that is not
// loaded only produces a warning.
func unloadDaemon() error {
	service := launchdDomain() + "/" + daemon.Label
	cmd := exec.Command("launchctl", "bootout", service)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if out := strings.TrimSpace(string(output)); out != "" {
			fmt.Printf("Warning: %s\n", out)
		}
	}

	return nil
}
