package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/b0tShaman/idxreduce/data"
	"github.com/b0tShaman/idxreduce/ml"
)

func newModelCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Create and describe network encoder models",
	}
	cmd.AddCommand(newModelInitCmd(a), newModelCheckCmd(a), newModelSummaryCmd(a), newModelEncodeCmd(a))
	return cmd
}

// architecture holds the flags describing a dense encoder.
type architecture struct {
	input, latent int
	hidden        []int
	activation    string
}

func (arch *architecture) addFlags(f *pflag.FlagSet) {
	f.IntVar(&arch.input, "input", 784, "input width (rows*cols)")
	f.IntSliceVar(&arch.hidden, "hidden", []int{64}, "hidden layer sizes")
	f.IntVar(&arch.latent, "latent", 10, "latent dimension")
	f.StringVar(&arch.activation, "activation", "relu", "hidden activation: relu, sigmoid, tanh, linear")
}

// build returns an untrained network of the described shape.
func (arch *architecture) build() (*ml.NeuralNetwork, error) {
	if _, err := ml.ParseActivation(arch.activation); err != nil {
		return nil, usageError(err)
	}
	configs := []ml.LayerConfig{ml.Input(arch.input)}
	for _, h := range arch.hidden {
		configs = append(configs, ml.Dense(h, ml.Activation(arch.activation)))
	}
	configs = append(configs, ml.Dense(arch.latent, ml.Activation("linear")))

	net, err := newNetwork(configs)
	if err != nil {
		return nil, usageError(err)
	}
	return net, nil
}

func newModelInitCmd(a *app) *cobra.Command {
	var (
		arch architecture
		seed uint64
	)
	cmd := &cobra.Command{
		Use:   "init <model.gob>",
		Short: "Write a freshly initialized dense encoder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := a.load()
			if err != nil {
				return err
			}
			net, err := arch.build()
			if err != nil {
				return err
			}
			net.Reinitialize(seed)

			if err := net.SaveToFile(args[0]); err != nil {
				return err
			}
			logger.Info("model written", "path", args[0], "input", arch.input, "dim", arch.latent)
			return nil
		},
	}
	arch.addFlags(cmd.Flags())
	cmd.Flags().Uint64Var(&seed, "seed", 1, "initialization seed")
	return cmd
}

func newModelCheckCmd(a *app) *cobra.Command {
	var arch architecture
	cmd := &cobra.Command{
		Use:   "check <model.gob>",
		Short: "Verify that a model file has the given architecture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := a.load(); err != nil {
				return err
			}
			net, err := arch.build()
			if err != nil {
				return err
			}
			if err := net.LoadFromFile(args[0]); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Fprintf(a.stdout, "%s: %d -> %d, architecture matches\n", args[0], net.InputDim, net.OutputDim())
			return nil
		},
	}
	arch.addFlags(cmd.Flags())
	return cmd
}

// newNetwork turns the builder's panics on bad shapes into errors.
func newNetwork(configs []ml.LayerConfig) (net *ml.NeuralNetwork, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model: %v", r)
		}
	}()
	return ml.NewNetwork(configs...), nil
}

func newModelSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <model.gob>",
		Short: "Print the layer table of a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := a.load(); err != nil {
				return err
			}
			net, err := ml.LoadNetwork(args[0])
			if err != nil {
				return err
			}
			return net.Summary(a.stdout)
		},
	}
}

func newModelEncodeCmd(a *app) *cobra.Command {
	var rows, cols int
	cmd := &cobra.Command{
		Use:   "encode <model.gob> <image>",
		Short: "Print the latent vector of one image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := a.load(); err != nil {
				return err
			}
			net, err := ml.LoadNetwork(args[0])
			if err != nil {
				return err
			}
			enc := &ml.NetworkEncoder{Net: net}
			z, err := enc.EncodeImage(args[1], rows, cols, data.LoadGray)
			if err != nil {
				return err
			}
			for i, v := range z {
				if i > 0 {
					fmt.Fprint(a.stdout, " ")
				}
				fmt.Fprintf(a.stdout, "%.6g", v)
			}
			fmt.Fprintln(a.stdout)
			return nil
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 28, "image height")
	cmd.Flags().IntVar(&cols, "cols", 28, "image width")
	return cmd
}
