package command

// Command describes one entry of the static command catalog.
type Command struct {
	Name        string   `json:"name"`
	Args        []string `json:"args"`
	Description string   `json:"description"`
}

// Catalog lists every command the dispatcher understands, in help order.
var Catalog = []Command{
	{Name: "setValue", Args: []string{"valueId", "newValue"}, Description: "Set a value from its string form; extra tokens are joined with spaces"},
	{Name: "getValue", Args: []string{"valueId"}, Description: "Read one value"},
	{Name: "refresh", Args: []string{"valueId"}, Description: "Ask the node to report a value again"},
	{Name: "include", Args: []string{}, Description: "Start the add-node flow on the controller"},
	{Name: "exclude", Args: []string{}, Description: "Start the remove-node flow on the controller"},
	{Name: "getNode", Args: []string{"[nodeId]"}, Description: "List every node, or return one node"},
	{Name: "neighbors", Args: []string{"nodeId"}, Description: "Fetch a node's neighbor list from the controller"},
	{Name: "reset", Args: []string{"hard|soft|bash"}, Description: "Reset the controller, soft-reset it, or reinstall the service"},
	{Name: "heal", Args: []string{"[nodeId]"}, Description: "Heal the whole network, or one node"},
	{Name: "isFailed", Args: []string{"nodeId"}, Description: "Report whether the controller considers a node failed"},
	{Name: "ping", Args: []string{"nodeId", "count"}, Description: "Send count no-operation frames to a node"},
	{Name: "broadcast", Args: []string{}, Description: "Republish the status of every node"},
	{Name: "setMode", Args: []string{"modeName"}, Description: "Switch the runtime mode"},
	{Name: "help", Args: []string{}, Description: "List the available commands"},
	{Name: "reboot", Args: []string{}, Description: "Tear down and reboot the host"},
	{Name: "shutdown", Args: []string{}, Description: "Tear down and power off the host"},
}
