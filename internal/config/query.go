package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"transferScan/internal/decode"
	"transferScan/internal/model"
	"transferScan/internal/scan"
)

// Plan is everything a scan needs that is derived from Config.
type Plan struct {
	Kind       scan.Kind
	Query      model.Query
	Signatures []string
}

// BuildPlan turns the flat configuration into a typed query for the
// configured scan kind.
//
// transfers: one log filter on the configured contracts and the topic0 of
// every signature (Transfer by default), joined to nothing else unless asked.
// transactions, traces, blocks: the kind is always fetched; log filters are
// only added when addresses or topics are configured.
func (c Config) BuildPlan() (Plan, error) {
	kind, err := scan.ParseKind(c.Kind)
	if err != nil {
		return Plan{}, err
	}
	addresses, err := ParseAddresses(c.Addresses)
	if err != nil {
		return Plan{}, err
	}
	topics, err := ParseTopics(c.Topic0)
	if err != nil {
		return Plan{}, err
	}
	join, err := model.ParseJoinMode(c.JoinMode)
	if err != nil {
		return Plan{}, err
	}

	q := model.Query{
		FromBlock:           c.FromBlock,
		IncludeTransactions: c.IncludeTransactions,
		IncludeTraces:       c.IncludeTraces,
		JoinMode:            join,
		Fields: model.FieldSelection{
			Block:       model.NormalizeFields(c.BlockFields),
			Log:         model.NormalizeFields(c.LogFields),
			Transaction: model.NormalizeFields(c.TransactionFields),
			Trace:       model.NormalizeFields(c.TraceFields),
		},
	}
	if c.ToBlock != 0 {
		to := c.ToBlock
		q.ToBlock = &to
	}

	plan := Plan{Kind: kind}
	switch kind {
	case scan.KindTransfers:
		plan.Signatures = c.Signatures
		if len(plan.Signatures) == 0 {
			plan.Signatures = []string{decode.TransferSignature}
		}
		if len(topics) == 0 {
			for _, sig := range plan.Signatures {
				topic, err := decode.Topic0(sig)
				if err != nil {
					return Plan{}, fmt.Errorf("signature %q: %w", sig, err)
				}
				topics = append(topics, topic)
			}
		}
		q.Logs = []model.LogFilter{logFilter(addresses, topics)}
	case scan.KindTransactions:
		q.IncludeTransactions = true
	case scan.KindTraces:
		q.IncludeTraces = true
	case scan.KindBlocks:
		if len(q.Fields.Block) == 0 {
			q.Fields.Block = model.AllBlockFields()
		}
	}
	if kind != scan.KindTransfers && (len(addresses) > 0 || len(topics) > 0) {
		q.Logs = []model.LogFilter{logFilter(addresses, topics)}
	}

	if err := q.Validate(); err != nil {
		return Plan{}, err
	}
	plan.Query = q
	return plan, nil
}

func logFilter(addresses []common.Address, topic0 []common.Hash) model.LogFilter {
	filter := model.LogFilter{Addresses: addresses}
	if len(topic0) > 0 {
		filter.Topics = [][]common.Hash{topic0}
	}
	return filter
}
