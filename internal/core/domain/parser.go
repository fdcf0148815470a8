package domain

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ParserClassifier refines the keyword classification using PostgreSQL's own
// parser. It only ever raises severity: the result is the max of the keyword
// verdict and the parse-tree verdict, and a parse failure keeps the keyword
// verdict.
type ParserClassifier struct{}

func NewParserClassifier() *ParserClassifier {
	return &ParserClassifier{}
}

func (p *ParserClassifier) Classify(sql string) Classification {
	base := Classify(sql)
	if base == DestructiveDDL {
		return base
	}

	tree, err := pg_query.Parse(sql)
	if err != nil {
		return base
	}
	for _, raw := range tree.Stmts {
		base = max(base, classifyNode(raw.GetStmt()))
		if base == DestructiveDDL {
			break
		}
	}
	return base
}

func classifyNode(n *pg_query.Node) Classification {
	if n == nil {
		return DestructiveDDL
	}
	switch node := n.Node.(type) {
	case *pg_query.Node_SelectStmt:
		return classifySelect(node.SelectStmt)
	case *pg_query.Node_InsertStmt, *pg_query.Node_UpdateStmt,
		*pg_query.Node_DeleteStmt, *pg_query.Node_MergeStmt:
		return Mutating
	default:
		return DestructiveDDL
	}
}

// classifySelect catches the SELECT forms that write: SELECT INTO creates a
// table, row locks need a read-write transaction, and CTEs may hold DML.
func classifySelect(s *pg_query.SelectStmt) Classification {
	if s == nil {
		return ReadOnly
	}
	if s.GetIntoClause() != nil {
		return DestructiveDDL
	}

	result := ReadOnly
	if len(s.GetLockingClause()) > 0 {
		result = Mutating
	}
	for _, cte := range s.GetWithClause().GetCtes() {
		result = max(result, classifyNode(cte.GetCommonTableExpr().GetCtequery()))
	}
	result = max(result, classifySelect(s.GetLarg()))
	result = max(result, classifySelect(s.GetRarg()))
	return result
}
