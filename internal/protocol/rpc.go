package protocol

import (
	"context"
	"fmt"
	"net/rpc"

	goplugin "github.com/hashicorp/go-plugin"
)

// Handshake is the magic-cookie handshake every external plugin process
// must echo back before the engine will talk to it, mirroring the pattern
// hashicorp/go-plugin consumers (Nomad Autoscaler, Waypoint, Terraform)
// use to avoid accidentally dispensing an unrelated binary.
var Handshake = goplugin.HandshakeConfig{
	ProtocolVersion:  ProtocolVersion,
	MagicCookieKey:   "SEMREL_PLUGIN",
	MagicCookieValue: "release-pipeline",
}

// PluginMapKey is the name external plugins register their implementation
// under when calling goplugin.Serve.
const PluginMapKey = "step_plugin"

// Dispensed returns the goplugin.PluginSet passed to both goplugin.Serve
// (plugin side) and goplugin.ClientConfig (engine side).
func Dispensed(impl Plugin, host Host) map[string]goplugin.Plugin {
	return map[string]goplugin.Plugin{
		PluginMapKey: &RPCPlugin{Impl: impl, Host: host},
	}
}

// RPCPlugin adapts a Plugin/Host pair to hashicorp/go-plugin's net/rpc
// Plugin interface. Server runs inside the external plugin process; Client
// runs inside the engine.
type RPCPlugin struct {
	Impl Plugin // set when this process is the plugin being served
	Host Host   // set when this process is the engine dispensing a client
}

// Server returns the RPC service the plugin process exposes to the engine.
func (p *RPCPlugin) Server(broker *goplugin.MuxBroker) (interface{}, error) {
	return &rpcServer{impl: p.Impl, broker: broker}, nil
}

// Client returns the engine-side stub that forwards calls to the plugin
// process. It starts no callback listener for Snapshot/Log.
func (p *RPCPlugin) Client(broker *goplugin.MuxBroker, client *rpc.Client) (interface{}, error) {
	return &RPCClient{client: client, broker: broker, host: p.Host}, nil
}

// rpcMethodsArgs/rpcCallArgs/rpcHostArgs are the net/rpc argument and reply
// types. net/rpc requires every exported method to take exactly one
// argument and one reply pointer, both gob-encodable.

type rpcMethodsArgs struct{}

type rpcCallArgs struct {
	Req Request
}

type rpcCallReply struct {
	Resp Response
}

type rpcSnapshotArgs struct {
	Path string
}

type rpcLogArgs struct {
	Level   LogLevel
	Message string
	Fields  map[string]any
}

// rpcServer runs inside the external plugin process and dispatches net/rpc
// calls from the engine into the local Plugin implementation. It holds the
// broker but opens no connection back to the engine, so the served plugin
// has no Host to issue Snapshot/Log calls on.
type rpcServer struct {
	impl   Plugin
	broker *goplugin.MuxBroker
}

func (s *rpcServer) Methods(_ rpcMethodsArgs, reply *MethodSet) error {
	ms, err := s.impl.Methods(context.Background())
	if err != nil {
		return err
	}
	*reply = ms
	return nil
}

func (s *rpcServer) Call(args rpcCallArgs, reply *rpcCallReply) error {
	resp, err := s.impl.Call(context.Background(), args.Req)
	if err != nil {
		return err
	}
	reply.Resp = resp
	return nil
}

// hostClientFor dials a host callback service registered at brokerID and
// returns a net/rpc client for it. Nothing in the module calls it.
func hostClientFor(broker *goplugin.MuxBroker, brokerID uint32) (*rpc.Client, error) {
	conn, err := broker.Dial(brokerID)
	if err != nil {
		return nil, fmt.Errorf("dial host callback broker: %w", err)
	}
	return rpc.NewClient(conn), nil
}

// RPCClient runs inside the engine process. It implements Plugin by
// forwarding Methods/Call over net/rpc to the external process. It keeps
// the engine's Host so ServeHost can expose it on the broker.
type RPCClient struct {
	client *rpc.Client
	broker *goplugin.MuxBroker
	host   Host
}

func (c *RPCClient) Methods(_ context.Context) (MethodSet, error) {
	var reply MethodSet
	if err := c.client.Call(PluginMapKey+".Methods", rpcMethodsArgs{}, &reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (c *RPCClient) Call(_ context.Context, req Request) (Response, error) {
	var reply rpcCallReply
	if err := c.client.Call(PluginMapKey+".Call", rpcCallArgs{Req: req}, &reply); err != nil {
		return Response{}, err
	}
	return reply.Resp, nil
}

// hostServer exposes the engine's Host (dry-run guard + logger) as a
// net/rpc service on the MuxBroker so the external plugin process can call
// back into it.
type hostServer struct {
	host Host
}

func (h *hostServer) Snapshot(args rpcSnapshotArgs, _ *struct{}) error {
	return h.host.Snapshot(args.Path)
}

func (h *hostServer) Log(args rpcLogArgs, _ *struct{}) error {
	h.host.Log(args.Level, args.Message, args.Fields)
	return nil
}

// ServeHost serves the Host as a net/rpc service on a fresh broker ID and
// returns that ID. No protocol call carries the ID to the plugin, and
// pluginhandle.Start does not call ServeHost.
func (c *RPCClient) ServeHost() uint32 {
	id := c.broker.NextId()
	go c.broker.AcceptAndServe(id, &hostServer{host: c.host})
	return id
}
