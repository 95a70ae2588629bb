package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/spamnet/internal/tensor"
)

// ClassifierConfig describes the architecture of a Classifier.
type ClassifierConfig struct {
	InputDim   int    // Width of each feature row (vocabulary size)
	HiddenDim  int    // Width of the hidden layer
	NumClasses int    // Number of output classes
	Activation string // Hidden nonlinearity, see NewActivation (default: relu)
	Seed       int64  // Seed for weight initialization
}

// Classifier is a single-hidden-layer perceptron.
//
// Architecture:
//   - hidden: Linear(InputDim → HiddenDim)
//   - act:    ReLU (or another Activation)
//   - output: Linear(HiddenDim → NumClasses)
//
// Forward returns raw logits. No softmax is applied: the loss normalizes the
// scores itself, so applying one here would apply it twice.
type Classifier[B tensor.Backend] struct {
	cfg    ClassifierConfig
	hidden *Linear[B]
	act    Activation[B]
	output *Linear[B]
}

// Trace holds the intermediate values of one forward pass.
// Backward needs them to apply the chain rule.
type Trace[B tensor.Backend] struct {
	Input         *tensor.Tensor[float32, B] // x            [N, in]
	PreActivation *tensor.Tensor[float32, B] // x @ W1 + b1  [N, hidden]
	Hidden        *tensor.Tensor[float32, B] // act(pre)     [N, hidden]
	Logits        *tensor.Tensor[float32, B] // h @ W2 + b2  [N, classes]
}

// NewClassifier creates a classifier with seeded Xavier weights and zero biases.
func NewClassifier[B tensor.Backend](cfg ClassifierConfig, backend B) (*Classifier[B], error) {
	if cfg.InputDim <= 0 || cfg.HiddenDim <= 0 {
		return nil, fmt.Errorf("%w: input_dim=%d hidden_dim=%d must be positive",
			ErrInvalidArchitecture, cfg.InputDim, cfg.HiddenDim)
	}
	if cfg.NumClasses < 2 {
		return nil, fmt.Errorf("%w: num_classes=%d, need at least 2", ErrInvalidArchitecture, cfg.NumClasses)
	}

	act, err := NewActivation[B](cfg.Activation)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // math/rand is fine for weight initialization
	rng := rand.New(rand.NewSource(cfg.Seed))
	return &Classifier[B]{
		cfg:    cfg,
		hidden: NewLinear(cfg.InputDim, cfg.HiddenDim, rng, backend),
		act:    act,
		output: NewLinear(cfg.HiddenDim, cfg.NumClasses, rng, backend),
	}, nil
}

// Forward computes logits for a batch: [N, InputDim] → [N, NumClasses].
func (c *Classifier[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return c.Trace(input).Logits
}

// Trace runs the forward pass and keeps every intermediate value.
func (c *Classifier[B]) Trace(input *tensor.Tensor[float32, B]) *Trace[B] {
	pre := c.hidden.Forward(input)
	h := c.act.Forward(pre)
	return &Trace[B]{
		Input:         input,
		PreActivation: pre,
		Hidden:        h,
		Logits:        c.output.Forward(h),
	}
}

// Backward accumulates parameter gradients for ∂L/∂logits = gradLogits.
//
// Chain: output layer → activation → hidden layer. The gradient with respect
// to the input features is not needed and is discarded.
func (c *Classifier[B]) Backward(trace *Trace[B], gradLogits *tensor.Tensor[float32, B]) {
	gradHidden := c.output.Backward(trace.Hidden, gradLogits)
	gradPre := c.act.Backward(trace.PreActivation, trace.Hidden, gradHidden)
	c.hidden.Backward(trace.Input, gradPre)
}

// Predict returns the argmax class per row.
func (c *Classifier[B]) Predict(input *tensor.Tensor[float32, B]) *tensor.Tensor[int32, B] {
	return c.Forward(input).Argmax()
}

// Parameters returns [W1, b1, W2, b2].
func (c *Classifier[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 4)
	params = append(params, c.hidden.Parameters()...)
	params = append(params, c.output.Parameters()...)
	return params
}

// ZeroGrad clears the gradients of all parameters.
func (c *Classifier[B]) ZeroGrad() {
	for _, p := range c.Parameters() {
		p.ZeroGrad()
	}
}

// Config returns the architecture the classifier was built with.
func (c *Classifier[B]) Config() ClassifierConfig {
	return c.cfg
}

// Activation returns the hidden nonlinearity.
func (c *Classifier[B]) Activation() Activation[B] {
	return c.act
}

// Hidden returns the input→hidden layer.
func (c *Classifier[B]) Hidden() *Linear[B] {
	return c.hidden
}

// Output returns the hidden→output layer.
func (c *Classifier[B]) Output() *Linear[B] {
	return c.output
}

// StateDict returns a snapshot of all parameters. The tensors are copies:
// mutating them does not affect the model.
//
// Keys: hidden.weight, hidden.bias, output.weight, output.bias.
func (c *Classifier[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor, 4)
	for prefix, layer := range c.layers() {
		for name, raw := range layer.StateDict() {
			stateDict[prefix+"."+name] = raw
		}
	}
	return stateDict
}

// LoadStateDict copies parameters from a snapshot produced by StateDict.
func (c *Classifier[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for prefix, layer := range c.layers() {
		sub := make(map[string]*tensor.RawTensor, 2)
		for _, name := range []string{"weight", "bias"} {
			if raw, ok := stateDict[prefix+"."+name]; ok {
				sub[name] = raw
			}
		}
		if err := layer.LoadStateDict(sub); err != nil {
			return fmt.Errorf("%s: %w", prefix, err)
		}
	}
	return nil
}

func (c *Classifier[B]) layers() map[string]*Linear[B] {
	return map[string]*Linear[B]{
		"hidden": c.hidden,
		"output": c.output,
	}
}
