package balances

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Pairs whose rounded net is at most one cent are treated as settled.
var netThreshold = decimal.New(1, -2)

type pair struct {
	from string
	to   string
}

// ComputeNetBalances nets unsettled splits into at most one directional
// balance per member pair, sorted by amount descending. Splits that reference
// a member missing from members are returned as skipped.
func ComputeNetBalances(splits []Split, members []Member) ([]NetBalance, []Split) {
	names := make(map[string]string, len(members))
	for _, member := range members {
		names[member.ID] = member.Name
	}

	totals := make(map[pair]decimal.Decimal)
	contributing := make(map[pair][]Split)
	var seen []pair
	var skipped []Split

	for _, split := range splits {
		if split.IsSettled || split.OwerID == split.PayerID {
			continue
		}
		_, owerKnown := names[split.OwerID]
		_, payerKnown := names[split.PayerID]
		if !owerKnown || !payerKnown {
			skipped = append(skipped, split)
			continue
		}

		key := pair{from: split.OwerID, to: split.PayerID}
		if _, ok := contributing[key]; !ok {
			seen = append(seen, key)
		}
		totals[key] = totals[key].Add(split.AmountOwed)
		contributing[key] = append(contributing[key], split)
	}

	visited := make(map[pair]bool, len(seen))
	result := make([]NetBalance, 0, len(seen))
	for _, key := range seen {
		reverse := pair{from: key.to, to: key.from}
		if visited[key] || visited[reverse] {
			continue
		}
		visited[key] = true

		diff := totals[key].Sub(totals[reverse])
		winner := key
		if diff.IsNegative() {
			winner = reverse
		}
		net := diff.Abs().Round(2)
		if net.LessThanOrEqual(netThreshold) {
			continue
		}

		result = append(result, NetBalance{
			FromMemberID:       winner.from,
			FromName:           names[winner.from],
			ToMemberID:         winner.to,
			ToName:             names[winner.to],
			Amount:             net,
			ContributingSplits: append([]Split(nil), contributing[winner]...),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Amount.GreaterThan(result[j].Amount)
	})

	return result, skipped
}

// FindBalance returns the balance owed by from to to.
func FindBalance(balances []NetBalance, from, to string) (NetBalance, bool) {
	for _, balance := range balances {
		if balance.FromMemberID == from && balance.ToMemberID == to {
			return balance, true
		}
	}
	return NetBalance{}, false
}

// Summarize totals what each member is owed and owes across balances.
func Summarize(balances []NetBalance, members []Member) []MemberSummary {
	owed := make(map[string]decimal.Decimal, len(members))
	owes := make(map[string]decimal.Decimal, len(members))
	for _, balance := range balances {
		owes[balance.FromMemberID] = owes[balance.FromMemberID].Add(balance.Amount)
		owed[balance.ToMemberID] = owed[balance.ToMemberID].Add(balance.Amount)
	}

	result := make([]MemberSummary, 0, len(members))
	for _, member := range members {
		result = append(result, MemberSummary{
			MemberID: member.ID,
			Name:     member.Name,
			Owed:     owed[member.ID],
			Owes:     owes[member.ID],
			Net:      owed[member.ID].Sub(owes[member.ID]),
		})
	}
	return result
}
