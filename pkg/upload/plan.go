package upload

import (
	"context"
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/dustin/go-humanize"
	"github.com/openmined/arfsync/pkg/localtree"
	"github.com/openmined/arfsync/pkg/localwrite"
)

// Plan is the ordered list of actions that mirrors a resolved folder onto the
// remote store. Folders precede their children.
type Plan struct {
	Ops       []Op
	Policy    localwrite.Policy
	Encrypted bool

	logger *slog.Logger
}

type Option func(*Plan)

func WithEncryption(encrypted bool) Option {
	return func(p *Plan) {
		p.Encrypted = encrypted
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Plan) {
		p.logger = logger
	}
}

// NewPlan turns the decisions recorded on a resolved tree into ops. A folder
// flagged with a file collision is skipped together with its whole subtree.
func NewPlan(root *localtree.FolderNode, policy localwrite.Policy, opts ...Option) *Plan {
	p := &Plan{
		Policy: policy,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.addFolder(root)

	p.logger.Debug("upload plan",
		"root", root.Path,
		"ops", len(p.Ops),
		"transactions", p.Count(OpCreateFolder, OpUploadFile, OpRevision),
		"skipped", p.Count(OpSkipUnchanged, OpSkipCollision, OpSkipExisting),
		"bytes", humanize.IBytes(uint64(p.TotalBytes())),
	)
	return p
}

func (p *Plan) addFolder(folder *localtree.FolderNode) {
	switch {
	case folder.CollidesWithFile:
		p.Ops = append(p.Ops, Op{Kind: OpSkipCollision, Folder: folder})
		return
	case folder.ExistingID != nil:
		p.Ops = append(p.Ops, Op{Kind: OpReuseFolder, Folder: folder})
	default:
		p.Ops = append(p.Ops, Op{Kind: OpCreateFolder, Folder: folder})
	}

	for _, file := range folder.Files {
		p.Ops = append(p.Ops, Op{Kind: fileOpKind(file, p.Policy), File: file})
	}
	for _, child := range folder.Folders {
		p.addFolder(child)
	}
}

func fileOpKind(file *localtree.FileNode, policy localwrite.Policy) OpKind {
	switch {
	case file.CollidesWithFolder:
		return OpSkipCollision
	case file.ExistingID == nil:
		return OpUploadFile
	case policy == localwrite.Skip:
		return OpSkipExisting
	case policy == localwrite.Upsert && file.HasSameTimestamp:
		return OpSkipUnchanged
	default:
		return OpRevision
	}
}

// Filter returns the ops of the given kinds in plan order.
func (p *Plan) Filter(kinds ...OpKind) []*Op {
	set := mapset.NewSet(kinds...)
	var out []*Op
	for i := range p.Ops {
		if set.Contains(p.Ops[i].Kind) {
			out = append(out, &p.Ops[i])
		}
	}
	return out
}

func (p *Plan) Count(kinds ...OpKind) int {
	return len(p.Filter(kinds...))
}

// TotalBytes is the number of content bytes the plan uploads, padded when the
// plan is encrypted.
func (p *Plan) TotalBytes() int64 {
	var total int64
	for i := range p.Ops {
		total += int64(p.Ops[i].DataSize(p.Encrypted))
	}
	return total
}

// AssignCosts prices every transacting op. Data and metadata are estimated
// separately; folders only carry metadata.
func (p *Plan) AssignCosts(ctx context.Context, est Estimator) error {
	for i := range p.Ops {
		op := &p.Ops[i]
		if !op.Kind.Transacts() {
			continue
		}

		var costs BaseCosts
		if !op.IsFolder() {
			data, err := est.EstimateCost(ctx, op.DataSize(p.Encrypted))
			if err != nil {
				return err
			}
			costs.FileData = data
		}

		metaSize, err := MetadataSize(op, p.Encrypted)
		if err != nil {
			return err
		}
		meta, err := est.EstimateCost(ctx, metaSize)
		if err != nil {
			return err
		}
		costs.MetaData = meta

		op.costs = &costs
	}
	return nil
}

// TotalCost sums the base costs of all ops. It fails with arfs.ErrMissingCost
// when AssignCosts has not run.
func (p *Plan) TotalCost() (Winston, error) {
	var total Winston
	for i := range p.Ops {
		costs, err := p.Ops[i].BaseCosts()
		if err != nil {
			return 0, err
		}
		total += costs.Total()
	}
	return total, nil
}
