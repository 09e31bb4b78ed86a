// Package command maps named commands with flat parameter mappings onto
// marketplace client calls and renders every outcome as an Envelope.
package command

import (
	"context"
	"sort"

	"github.com/donaldgifford/marketplace/pkg/marketplace"
)

// AuthMode is the credential a command needs.
type AuthMode string

// Auth modes.
const (
	AuthNone    AuthMode = "none"
	AuthAPIKey  AuthMode = "api_key"
	AuthSession AuthMode = "session"
)

// ParamType is the declared type of a command parameter.
type ParamType string

// Parameter types.
const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
)

// Well-known parameter names shared by every command.
const (
	ParamBaseURL  = "base_url"
	ParamAPIKey   = "api_key"
	ParamUsername = "username"
	ParamPassword = "password"
)

// Param describes one command parameter. Positive integer parameters reject
// values below 1 during binding.
type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description"`
	Required    bool      `json:"required"`
	Default     any       `json:"default"`
	Positive    bool      `json:"-"`
}

// Call is what a handler gets: the coerced arguments and the client for the
// command's auth mode. Session is set only for AuthSession commands.
type Call struct {
	Args    Args
	Client  *marketplace.Client
	Session *marketplace.Session
}

// Handler performs exactly one domain operation and returns the result
// fields echoed in the success envelope.
type Handler func(ctx context.Context, call *Call) (Fields, error)

// Descriptor is a registered command.
type Descriptor struct {
	Name        string
	Description string
	Auth        AuthMode
	Params      []Param
	Handler     Handler
}

// Param returns the named parameter spec.
func (d *Descriptor) Param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Registry is an immutable, ordered set of descriptors.
type Registry struct {
	byName map[string]*Descriptor
	order  []*Descriptor
}

// NewRegistry builds a registry, adding the shared base_url and credential
// parameters each descriptor's auth mode calls for. Duplicate names panic.
func NewRegistry(descs ...Descriptor) *Registry {
	r := &Registry{byName: make(map[string]*Descriptor, len(descs))}
	for i := range descs {
		d := descs[i]
		if _, dup := r.byName[d.Name]; dup {
			panic("command: duplicate command " + d.Name)
		}
		d.Params = append(commonParams(d.Auth), d.Params...)
		r.byName[d.Name] = &d
		r.order = append(r.order, &d)
	}
	return r
}

func commonParams(mode AuthMode) []Param {
	params := []Param{{
		Name:        ParamBaseURL,
		Type:        TypeString,
		Description: "API base URL (optional; env MARKETPLACE_BASE_URL or " + marketplace.DefaultBaseURL + ")",
	}}
	switch mode {
	case AuthAPIKey:
		params = append(params, Param{Name: ParamAPIKey, Type: TypeString, Description: "API key", Required: true})
	case AuthSession:
		params = append(params,
			Param{Name: ParamUsername, Type: TypeString, Description: "Login username", Required: true},
			Param{Name: ParamPassword, Type: TypeString, Description: "Login password", Required: true},
		)
	}
	return params
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Commands returns descriptors in registration order.
func (r *Registry) Commands() []*Descriptor {
	out := make([]*Descriptor, len(r.order))
	copy(out, r.order)
	return out
}

// Names returns the sorted command names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.order))
	for _, d := range r.order {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}

// PluginInfo identifies the command set in Describe output.
type PluginInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// CommandInfo is the discovery view of a descriptor.
type CommandInfo struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  []Param `json:"parameters"`
}

// Description is the static registry metadata emitted by --describe.
type Description struct {
	Plugin   PluginInfo    `json:"plugin"`
	Commands []CommandInfo `json:"commands"`
}

// Plugin metadata.
const (
	PluginName        = "marketplace"
	PluginVersion     = "0.1.0"
	PluginDescription = "Marketplace REST API: stores, items, transactions, API keys, deposits, disputes, admin"
)

// Describe returns the registry metadata. It never touches the network.
func (r *Registry) Describe() *Description {
	desc := &Description{
		Plugin: PluginInfo{
			Name:        PluginName,
			Version:     PluginVersion,
			Description: PluginDescription,
		},
		Commands: make([]CommandInfo, 0, len(r.order)),
	}
	for _, d := range r.order {
		params := make([]Param, len(d.Params))
		copy(params, d.Params)
		desc.Commands = append(desc.Commands, CommandInfo{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  params,
		})
	}
	return desc
}
