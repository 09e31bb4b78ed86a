package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/donaldgifford/marketplace/internal/command"
)

// objectFlag is the flag name used for object parameters, given as
// repeated --set key=value pairs.
const objectFlag = "set"

// dispatchCommand builds the subcommand for one registry descriptor. Every
// parameter is a string flag so coercion and its errors stay in the
// dispatcher; only flags the user set are passed on, letting descriptor
// defaults apply.
func (a *app) dispatchCommand(desc *command.Descriptor) *cobra.Command {
	c := &cobra.Command{
		Use:   desc.Name,
		Short: desc.Description,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := collectParams(cmd.Flags(), desc)
			if err != nil {
				return err
			}

			env := a.dispatcher(a.logger(cliLogLevel)).Dispatch(cmd.Context(), desc.Name, params)
			if err := writeJSON(a.stdout, env); err != nil {
				return &exitError{code: ExitError, err: err}
			}

			switch {
			case env.OK():
				return nil
			case env.ErrorType() == command.ErrTypeArgument:
				_ = writeJSON(a.stderr, env)
				return &exitError{code: ExitArgument}
			default:
				return &exitError{code: ExitError}
			}
		},
	}

	fs := c.Flags()
	fs.SetNormalizeFunc(normalizeFlag)
	for i := range desc.Params {
		p := &desc.Params[i]
		if p.Type == command.TypeObject {
			fs.StringToString(objectFlag, nil, flagUsage(p)+" (key=value, repeatable)")
			continue
		}
		fs.String(flagName(p), "", flagUsage(p))
	}

	return c
}

func flagName(p *command.Param) string {
	if p.Type == command.TypeObject {
		return objectFlag
	}
	return strings.ReplaceAll(p.Name, "_", "-")
}

func flagUsage(p *command.Param) string {
	usage := p.Description
	if p.Required {
		usage += " (required)"
	}
	if p.Default != nil && p.Default != "" {
		usage += fmt.Sprintf(" (default %v)", p.Default)
	}
	return usage
}

// collectParams maps changed flags back to parameter names.
func collectParams(fs *pflag.FlagSet, desc *command.Descriptor) (map[string]any, error) {
	params := make(map[string]any)
	for i := range desc.Params {
		p := &desc.Params[i]
		name := flagName(p)
		if !fs.Changed(name) {
			continue
		}

		if p.Type == command.TypeObject {
			kv, err := fs.GetStringToString(name)
			if err != nil {
				return nil, &command.ArgumentError{Param: p.Name, Message: err.Error(), Err: err}
			}
			params[p.Name] = kv
			continue
		}

		v, err := fs.GetString(name)
		if err != nil {
			return nil, &command.ArgumentError{Param: p.Name, Message: err.Error(), Err: err}
		}
		params[p.Name] = v
	}
	return params, nil
}
