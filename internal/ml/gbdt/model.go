// Package gbdt evaluates gradient-boosted tree ensembles exported by LightGBM's dump_model().
package gbdt

import (
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"

	"estimator/pkg/errors"
)

// Kind is decided once at load time and selects the output link
type Kind int

const (
	KindRegression Kind = iota
	KindBinary
	KindMulticlass
)

// String returns string representation
func (k Kind) String() string {
	switch k {
	case KindBinary:
		return "binary"
	case KindMulticlass:
		return "multiclass"
	default:
		return "regression"
	}
}

// MissingType mirrors LightGBM's per-split missing value handling
type MissingType int

const (
	MissingNone MissingType = iota
	MissingZero
	MissingNaN
)

// Node is one entry of a flattened tree. Children are indices into Tree.Nodes.
type Node struct {
	Leaf        bool
	Feature     int
	Threshold   float64
	Categorical bool
	Categories  map[int]struct{}
	DefaultLeft bool
	Missing     MissingType
	Left        int
	Right       int
	Value       float64 // leaf_value for leaves, internal_value otherwise
	Cover       float64 // leaf_count / internal_count
}

// Tree is a single boosted tree. Nodes[0] is the root.
type Tree struct {
	Nodes  []Node
	Output int // output column this tree adds to
}

// Model is an immutable tree ensemble
type Model struct {
	Objective    string
	Kind         Kind
	NumOutputs   int
	FeatureNames []string
	Trees        []Tree
	Sigmoid      float64
}

// NumFeatures is the row width Raw expects
func (m *Model) NumFeatures() int {
	return len(m.FeatureNames)
}

type dumpFile struct {
	Objective           string         `json:"objective"`
	NumClass            int            `json:"num_class"`
	NumTreePerIteration int            `json:"num_tree_per_iteration"`
	MaxFeatureIdx       int            `json:"max_feature_idx"`
	FeatureNames        []string       `json:"feature_names"`
	TreeInfo            []dumpTreeInfo `json:"tree_info"`
}

type dumpTreeInfo struct {
	TreeIndex     int      `json:"tree_index"`
	TreeStructure dumpNode `json:"tree_structure"`
}

type dumpNode struct {
	SplitFeature  *int            `json:"split_feature"`
	Threshold     json.RawMessage `json:"threshold"`
	DecisionType  string          `json:"decision_type"`
	DefaultLeft   bool            `json:"default_left"`
	MissingType   string          `json:"missing_type"`
	InternalValue float64         `json:"internal_value"`
	InternalCount float64         `json:"internal_count"`
	LeftChild     *dumpNode       `json:"left_child"`
	RightChild    *dumpNode       `json:"right_child"`
	LeafValue     float64         `json:"leaf_value"`
	LeafCount     float64         `json:"leaf_count"`
}

// Load reads a dump_model() JSON file
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open model %s", path)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "model %s", path)
	}
	return m, nil
}

// Parse decodes and validates a dump_model() document
func Parse(r io.Reader) (*Model, error) {
	var dump dumpFile
	if err := json.NewDecoder(r).Decode(&dump); err != nil {
		return nil, errors.Wrap(err, "decode model json")
	}

	if len(dump.TreeInfo) == 0 {
		return nil, errors.New("model has no trees")
	}
	if dump.MaxFeatureIdx < 0 {
		return nil, errors.Newf("invalid max_feature_idx %d", dump.MaxFeatureIdx)
	}
	numFeatures := dump.MaxFeatureIdx + 1
	if len(dump.FeatureNames) != 0 && len(dump.FeatureNames) != numFeatures {
		return nil, errors.Newf("feature_names has %d entries, max_feature_idx implies %d",
			len(dump.FeatureNames), numFeatures)
	}

	perIter := dump.NumTreePerIteration
	if perIter < 1 {
		perIter = 1
	}

	m := &Model{
		Objective:    dump.Objective,
		NumOutputs:   perIter,
		FeatureNames: dump.FeatureNames,
		Sigmoid:      1,
	}
	if len(m.FeatureNames) == 0 {
		m.FeatureNames = make([]string, numFeatures)
		for i := range m.FeatureNames {
			m.FeatureNames[i] = "Column_" + strconv.Itoa(i)
		}
	}

	fields := strings.Fields(dump.Objective)
	name := ""
	if len(fields) > 0 {
		name = fields[0]
	}
	switch {
	case (name == "multiclass" || name == "multiclassova") && dump.NumClass > 1:
		if perIter != dump.NumClass {
			return nil, errors.Newf("num_tree_per_iteration %d does not match num_class %d", perIter, dump.NumClass)
		}
		m.Kind = KindMulticlass
	case name == "binary":
		m.Kind = KindBinary
		for _, f := range fields[1:] {
			if v, ok := strings.CutPrefix(f, "sigmoid:"); ok {
				s, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return nil, errors.Wrapf(err, "objective sigmoid %q", v)
				}
				m.Sigmoid = s
			}
		}
	default:
		m.Kind = KindRegression
	}

	m.Trees = make([]Tree, 0, len(dump.TreeInfo))
	for i, info := range dump.TreeInfo {
		t := Tree{Output: i % perIter}
		if _, err := t.flatten(&info.TreeStructure, numFeatures, true); err != nil {
			return nil, errors.Wrapf(err, "tree %d", i)
		}
		m.Trees = append(m.Trees, t)
	}

	return m, nil
}

// flatten appends n and its subtree to t.Nodes in pre-order and returns n's index.
// A root that is a leaf may omit leaf_count; every other node must carry a positive cover.
func (t *Tree) flatten(n *dumpNode, numFeatures int, root bool) (int, error) {
	idx := len(t.Nodes)

	if n.SplitFeature == nil {
		if n.LeafCount <= 0 && !root {
			return 0, errors.Newf("leaf %d has non-positive cover %v", idx, n.LeafCount)
		}
		t.Nodes = append(t.Nodes, Node{Leaf: true, Feature: -1, Value: n.LeafValue, Cover: n.LeafCount})
		return idx, nil
	}

	feature := *n.SplitFeature
	if feature < 0 || feature >= numFeatures {
		return 0, errors.Newf("split feature %d out of range", feature)
	}
	if n.LeftChild == nil || n.RightChild == nil {
		return 0, errors.Newf("node %d is missing a child", idx)
	}
	if n.InternalCount <= 0 {
		return 0, errors.Newf("node %d has non-positive cover %v", idx, n.InternalCount)
	}

	node := Node{
		Feature:     feature,
		DefaultLeft: n.DefaultLeft,
		Value:       n.InternalValue,
		Cover:       n.InternalCount,
	}

	switch n.MissingType {
	case "", "None":
		node.Missing = MissingNone
	case "Zero":
		node.Missing = MissingZero
	case "NaN":
		node.Missing = MissingNaN
	default:
		return 0, errors.Newf("unknown missing_type %q", n.MissingType)
	}

	switch n.DecisionType {
	case "", "<=":
		var th float64
		if err := json.Unmarshal(n.Threshold, &th); err != nil {
			return 0, errors.Wrapf(err, "node %d threshold", idx)
		}
		node.Threshold = th
	case "==":
		cats, err := parseCategories(n.Threshold)
		if err != nil {
			return 0, errors.Wrapf(err, "node %d categories", idx)
		}
		node.Categorical = true
		node.Categories = cats
	default:
		return 0, errors.Newf("unsupported decision_type %q", n.DecisionType)
	}

	t.Nodes = append(t.Nodes, node)

	left, err := t.flatten(n.LeftChild, numFeatures, false)
	if err != nil {
		return 0, err
	}
	right, err := t.flatten(n.RightChild, numFeatures, false)
	if err != nil {
		return 0, err
	}
	t.Nodes[idx].Left = left
	t.Nodes[idx].Right = right

	return idx, nil
}

// parseCategories reads a categorical threshold such as "1||4||7"
func parseCategories(raw json.RawMessage) (map[int]struct{}, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		// a single category may be dumped as a bare number
		var f float64
		if err2 := json.Unmarshal(raw, &f); err2 != nil {
			return nil, err
		}
		s = strconv.Itoa(int(f))
	}

	cats := make(map[int]struct{})
	for _, part := range strings.Split(s, "||") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.Wrapf(err, "category %q", part)
		}
		cats[v] = struct{}{}
	}
	if len(cats) == 0 {
		return nil, errors.New("empty category set")
	}
	return cats, nil
}
