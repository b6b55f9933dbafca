// Package process runs the host scripts that follow a stop command.
//
// After the socket server has torn down the controller it hands the stop
// action ("reinstall", "reboot" or "shutdown") to a Runner, which executes
// the configured script once and waits for it. The script runs in its own
// process group so a timeout can signal every child it spawned.
//
// Example usage:
//
//	runner := process.NewRunner(process.Config{
//	    Scripts: map[string]string{
//	        process.ActionReboot:   "/usr/local/lib/zwaved/reboot.sh",
//	        process.ActionShutdown: "/usr/local/lib/zwaved/shutdown.sh",
//	    },
//	    Timeout: 2 * time.Minute,
//	})
//
//	res, err := runner.Run(ctx, process.ActionReboot)
package process
