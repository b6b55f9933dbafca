// Package command implements the comma-separated request protocol spoken on
// the local control socket.
//
// A request is "name,arg1,arg2,...". The Dispatcher resolves the name against
// a fixed table, validates arguments in a fixed order (count, then shape, then
// existence) and answers with a JSON envelope:
//
//	{"length":..,"upTime":..,"commandName":..,"args":[..],"body":{..},"mode":..,"logLevel":..}
//
// The body always ends with "status" and "message". Status codes borrow HTTP
// semantics: 2xx success, 400 for argument count or shape errors, 404 for
// unknown nodes, values and commands, 422 for well-formed but rejected
// arguments and 503 when the controller refuses a call.
//
// Every dispatched request is handed to a Journal, regardless of outcome.
package command
