package kb

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ExpertsByInterest finds experts whose interest matches field exactly
// (case-insensitive), best h-index first.
func (c *Client) ExpertsByInterest(ctx context.Context, field string) ([]Expert, error) {
	const cypher = `
	MATCH (e:Expert)-[:INTERESTED_IN]->(i:Interest)
	WHERE toLower(i.name) = toLower($field)
	RETURN DISTINCT e.name AS name, e.name_zh AS name_zh, e.h_index AS h_index, e.position AS position
	ORDER BY e.h_index DESC
	`
	return c.queryExperts(ctx, "experts_by_interest", cypher, map[string]any{"field": field})
}

// ExpertsByInterestFuzzy is the substring fallback for ExpertsByInterest.
func (c *Client) ExpertsByInterestFuzzy(ctx context.Context, field string) ([]Expert, error) {
	const cypher = `
	MATCH (e:Expert)-[:INTERESTED_IN]->(i:Interest)
	WHERE toLower(i.name) CONTAINS toLower($field)
	RETURN DISTINCT e.name AS name, e.name_zh AS name_zh, e.h_index AS h_index, e.position AS position
	ORDER BY e.h_index DESC
	`
	return c.queryExperts(ctx, "experts_by_interest_fuzzy", cypher, map[string]any{"field": field})
}

// ExpertsByHIndexRange returns experts whose h-index falls in [min, max],
// highest first.
func (c *Client) ExpertsByHIndexRange(ctx context.Context, min, max int64) ([]Expert, error) {
	const cypher = `
	MATCH (e:Expert)
	WHERE e.h_index >= $min AND e.h_index <= $max
	RETURN e.name AS name, e.name_zh AS name_zh, e.h_index AS h_index, e.position AS position
	ORDER BY e.h_index DESC
	`
	return c.queryExperts(ctx, "experts_by_h_index_range", cypher, map[string]any{"min": min, "max": max})
}

func (c *Client) queryExperts(ctx context.Context, operation, cypher string, params map[string]any) ([]Expert, error) {
	records, err := c.run(ctx, operation, cypher, params)
	if err != nil {
		return nil, err
	}
	experts := make([]Expert, 0, len(records))
	for _, record := range records {
		experts = append(experts, Expert{
			Name:     stringValue(record, "name"),
			NameZh:   stringValue(record, "name_zh"),
			HIndex:   intValue(record, "h_index"),
			Position: stringValue(record, "position"),
		})
	}
	return experts, nil
}

// ExpertInterests returns the interest profile of every expert whose
// name contains name. Several results mean the name is ambiguous.
func (c *Client) ExpertInterests(ctx context.Context, name string) ([]ExpertProfile, error) {
	const cypher = `
	MATCH (e:Expert)-[:INTERESTED_IN]->(i:Interest)
	WHERE e.name CONTAINS $name
	WITH e, collect(i.name) AS interests
	RETURN e.name AS name, e.name_zh AS name_zh, e.position AS position, interests
	`
	records, err := c.run(ctx, "expert_interests", cypher, map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	return profilesFromRecords(records), nil
}

// ExpertHIndexes returns the h-index profile of every expert whose name
// contains name, interests included for disambiguation display.
func (c *Client) ExpertHIndexes(ctx context.Context, name string) ([]ExpertProfile, error) {
	const cypher = `
	MATCH (e:Expert)
	WHERE e.name CONTAINS $name
	OPTIONAL MATCH (e)-[:INTERESTED_IN]->(i:Interest)
	WITH e, collect(i.name) AS interests
	RETURN e.name AS name, e.name_zh AS name_zh, e.position AS position, e.h_index AS h_index, interests
	`
	records, err := c.run(ctx, "expert_h_indexes", cypher, map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	return profilesFromRecords(records), nil
}

// ExpertHIndexesInField narrows ExpertHIndexes to experts interested in
// a field, for questions like "研究机器学习的张三的h指数".
func (c *Client) ExpertHIndexesInField(ctx context.Context, name, field string) ([]ExpertProfile, error) {
	const cypher = `
	MATCH (e:Expert)-[:INTERESTED_IN]->(i:Interest)
	WHERE e.name CONTAINS $name AND toLower(i.name) CONTAINS toLower($field)
	RETURN DISTINCT e.name AS name, e.name_zh AS name_zh, e.position AS position, e.h_index AS h_index, [i.name] AS interests
	`
	records, err := c.run(ctx, "expert_h_indexes_in_field", cypher, map[string]any{"name": name, "field": field})
	if err != nil {
		return nil, err
	}
	return profilesFromRecords(records), nil
}

func profilesFromRecords(records []*neo4j.Record) []ExpertProfile {
	profiles := make([]ExpertProfile, 0, len(records))
	for _, record := range records {
		profiles = append(profiles, ExpertProfile{
			Name:      stringValue(record, "name"),
			NameZh:    stringValue(record, "name_zh"),
			Position:  stringValue(record, "position"),
			HIndex:    intValue(record, "h_index"),
			Interests: stringsValue(record, "interests"),
		})
	}
	return profiles
}

// ExpertPublications returns the paper titles of an exactly named expert.
func (c *Client) ExpertPublications(ctx context.Context, name string) ([]string, error) {
	const cypher = `
	MATCH (e:Expert {name: $name})-[:AUTHORED]->(p:Publication)
	RETURN p.title AS title
	`
	records, err := c.run(ctx, "expert_publications", cypher, map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(records))
	for _, record := range records {
		if title := stringValue(record, "title"); title != "" {
			titles = append(titles, title)
		}
	}
	return titles, nil
}

// PublicationAuthors returns author names of papers whose title contains
// title.
func (c *Client) PublicationAuthors(ctx context.Context, title string) ([]string, error) {
	const cypher = `
	MATCH (e:Expert)-[:AUTHORED]->(p:Publication)
	WHERE p.title CONTAINS $title
	RETURN e.name AS name
	`
	records, err := c.run(ctx, "publication_authors", cypher, map[string]any{"title": title})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(records))
	for _, record := range records {
		if name := stringValue(record, "name"); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// Cooperation returns papers co-authored by two experts, newest first.
// Name matching is by substring so partial names still resolve.
func (c *Client) Cooperation(ctx context.Context, name1, name2 string) ([]Publication, error) {
	const cypher = `
	MATCH (e1:Expert)-[:AUTHORED]->(p:Publication)<-[:AUTHORED]-(e2:Expert)
	WHERE e1.name CONTAINS $name1 AND e2.name CONTAINS $name2
	RETURN p.title AS title, p.year AS year
	ORDER BY p.year DESC
	`
	records, err := c.run(ctx, "cooperation", cypher, map[string]any{"name1": name1, "name2": name2})
	if err != nil {
		return nil, err
	}
	pubs := make([]Publication, 0, len(records))
	for _, record := range records {
		pubs = append(pubs, Publication{
			Title: stringValue(record, "title"),
			Year:  yearValue(record, "year"),
		})
	}
	return pubs, nil
}

// PairwiseCollaborations returns co-authored papers for every unordered
// pair among names. The e1 < e2 guard keeps each pair single-sided.
func (c *Client) PairwiseCollaborations(ctx context.Context, names []string) ([]Collaboration, error) {
	const cypher = `
	MATCH (e1:Expert)-[:AUTHORED]->(p:Publication)<-[:AUTHORED]-(e2:Expert)
	WHERE e1.name IN $names AND e2.name IN $names
	AND e1.name < e2.name
	WITH e1, e2, collect(p.title) AS titles
	RETURN e1.name AS expert1, e2.name AS expert2, titles
	`
	records, err := c.run(ctx, "pairwise_collaborations", cypher, map[string]any{"names": names})
	if err != nil {
		return nil, err
	}
	collabs := make([]Collaboration, 0, len(records))
	for _, record := range records {
		collabs = append(collabs, Collaboration{
			Expert1: stringValue(record, "expert1"),
			Expert2: stringValue(record, "expert2"),
			Titles:  stringsValue(record, "titles"),
		})
	}
	return collabs, nil
}

// CollaborationNetwork returns the co-authorship neighborhood of an
// expert up to depth hops, capped at edgeLimit edges.
func (c *Client) CollaborationNetwork(ctx context.Context, name string, depth, edgeLimit int) (Network, error) {
	if depth < 1 {
		depth = 1
	}
	// Variable-length patterns cannot take a parameter for the bound
	cypher := fmt.Sprintf(`
	MATCH path = (e1:Expert)-[:AUTHORED*1..%d]-(e2:Expert)
	WHERE e1.name CONTAINS $name
	WITH DISTINCT e1, e2
	RETURN e1.name AS source, e2.name AS target
	LIMIT %d
	`, depth, edgeLimit)
	records, err := c.run(ctx, "collaboration_network", cypher, map[string]any{"name": name})
	if err != nil {
		return Network{}, err
	}
	return networkFromRecords(records, false), nil
}

// FieldNetwork returns interests that co-occur with field across at
// least two experts, weighted by expert count.
func (c *Client) FieldNetwork(ctx context.Context, field string, edgeLimit int) (Network, error) {
	cypher := fmt.Sprintf(`
	MATCH (i1:Interest)<-[:INTERESTED_IN]-(e:Expert)-[:INTERESTED_IN]->(i2:Interest)
	WHERE toLower(i1.name) CONTAINS toLower($field)
	WITH i1, i2, count(e) AS weight
	WHERE weight > 1
	RETURN i1.name AS source, i2.name AS target, weight
	ORDER BY weight DESC
	LIMIT %d
	`, edgeLimit)
	records, err := c.run(ctx, "field_network", cypher, map[string]any{"field": field})
	if err != nil {
		return Network{}, err
	}
	return networkFromRecords(records, true), nil
}

func networkFromRecords(records []*neo4j.Record, weighted bool) Network {
	seen := make(map[string]struct{})
	network := Network{Nodes: []NetworkNode{}, Links: []NetworkLink{}}
	addNode := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		network.Nodes = append(network.Nodes, NetworkNode{Name: name})
	}
	for _, record := range records {
		source := stringValue(record, "source")
		target := stringValue(record, "target")
		addNode(source)
		addNode(target)
		link := NetworkLink{Source: source, Target: target}
		if weighted {
			if w := intValue(record, "weight"); w != nil {
				link.Weight = *w
			}
		}
		network.Links = append(network.Links, link)
	}
	return network
}

// HIndexDistribution returns every known h-index value, cached.
func (c *Client) HIndexDistribution(ctx context.Context) ([]int64, error) {
	return cached(ctx, c, "h_index_distribution", func(ctx context.Context) ([]int64, error) {
		const cypher = `
		MATCH (e:Expert)
		WHERE e.h_index IS NOT NULL
		RETURN e.h_index AS h_index
		`
		records, err := c.run(ctx, "h_index_distribution", cypher, nil)
		if err != nil {
			return nil, err
		}
		values := make([]int64, 0, len(records))
		for _, record := range records {
			if v := intValue(record, "h_index"); v != nil {
				values = append(values, *v)
			}
		}
		return values, nil
	})
}

// FieldDistribution returns the most populated research fields by
// expert count, cached.
func (c *Client) FieldDistribution(ctx context.Context, limit int) ([]FieldCount, error) {
	key := fmt.Sprintf("field_distribution:%d", limit)
	return cached(ctx, c, key, func(ctx context.Context) ([]FieldCount, error) {
		cypher := fmt.Sprintf(`
		MATCH (i:Interest)<-[:INTERESTED_IN]-(e:Expert)
		WITH i.name AS field, count(DISTINCT e) AS count
		RETURN field, count
		ORDER BY count DESC
		LIMIT %d
		`, limit)
		records, err := c.run(ctx, "field_distribution", cypher, nil)
		if err != nil {
			return nil, err
		}
		counts := make([]FieldCount, 0, len(records))
		for _, record := range records {
			fc := FieldCount{Field: stringValue(record, "field")}
			if n := intValue(record, "count"); n != nil {
				fc.Count = *n
			}
			counts = append(counts, fc)
		}
		return counts, nil
	})
}

// YearlyPublicationCounts returns publications per year in ascending
// year order, cached.
func (c *Client) YearlyPublicationCounts(ctx context.Context) ([]YearCount, error) {
	return cached(ctx, c, "yearly_publication_counts", func(ctx context.Context) ([]YearCount, error) {
		const cypher = `
		MATCH (p:Publication)
		WHERE p.year IS NOT NULL
		WITH toInteger(p.year) AS year, count(p) AS count
		RETURN year, count
		ORDER BY year
		`
		records, err := c.run(ctx, "yearly_publication_counts", cypher, nil)
		if err != nil {
			return nil, err
		}
		counts := make([]YearCount, 0, len(records))
		for _, record := range records {
			yc := YearCount{}
			if y := intValue(record, "year"); y != nil {
				yc.Year = *y
			}
			if n := intValue(record, "count"); n != nil {
				yc.Count = *n
			}
			counts = append(counts, yc)
		}
		return counts, nil
	})
}

// AllInterestNames returns every distinct interest name, cached and
// deduplicated across concurrent callers. Similar-field suggestion calls
// this on every failed lookup, which is why it is cached.
func (c *Client) AllInterestNames(ctx context.Context) ([]string, error) {
	return cached(ctx, c, "interest_names", func(ctx context.Context) ([]string, error) {
		const cypher = `
		MATCH (i:Interest)
		RETURN DISTINCT i.name AS name
		`
		records, err := c.run(ctx, "interest_names", cypher, nil)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(records))
		for _, record := range records {
			if name := stringValue(record, "name"); name != "" {
				names = append(names, name)
			}
		}
		return names, nil
	})
}

// FieldPublications returns papers by experts interested in field,
// newest first with authors collected per paper. fuzzy switches the
// interest match from equality to substring.
func (c *Client) FieldPublications(ctx context.Context, field string, fuzzy bool, limit int) ([]Publication, error) {
	return c.fieldPublications(ctx, "field_publications", field, fuzzy, false, limit)
}

// RecentFieldPublications is FieldPublications restricted to papers
// with a known year.
func (c *Client) RecentFieldPublications(ctx context.Context, field string, fuzzy bool, limit int) ([]Publication, error) {
	return c.fieldPublications(ctx, "recent_field_publications", field, fuzzy, true, limit)
}

func (c *Client) fieldPublications(ctx context.Context, operation, field string, fuzzy, requireYear bool, limit int) ([]Publication, error) {
	match := "toLower(i.name) = toLower($field)"
	if fuzzy {
		match = "toLower(i.name) CONTAINS toLower($field)"
	}
	yearFilter := ""
	if requireYear {
		yearFilter = "AND p.year IS NOT NULL"
	}
	cypher := fmt.Sprintf(`
	MATCH (p:Publication)<-[:AUTHORED]-(e:Expert)-[:INTERESTED_IN]->(i:Interest)
	WHERE %s %s
	WITH DISTINCT p.title AS title, p.year AS year, p.id AS id
	MATCH (p:Publication {id: id})<-[:AUTHORED]-(e:Expert)
	WITH title, year, id,
	     collect(DISTINCT {name: e.name, name_zh: e.name_zh}) AS authors
	RETURN title, year, authors
	ORDER BY year DESC, title
	LIMIT %d
	`, match, yearFilter, limit)
	records, err := c.run(ctx, operation, cypher, map[string]any{"field": field})
	if err != nil {
		return nil, err
	}
	return publicationsFromRecords(records), nil
}

// PublicationsByTitle returns papers whose title contains title, with
// year and authors.
func (c *Client) PublicationsByTitle(ctx context.Context, title string) ([]Publication, error) {
	const cypher = `
	MATCH (p:Publication)
	WHERE p.title CONTAINS $title
	WITH DISTINCT p.title AS title, p.year AS year, p.id AS id
	MATCH (p:Publication {id: id})<-[:AUTHORED]-(e:Expert)
	WITH title, year,
	     collect(DISTINCT {name: e.name, name_zh: e.name_zh}) AS authors
	RETURN title, year, authors
	`
	records, err := c.run(ctx, "publications_by_title", cypher, map[string]any{"title": title})
	if err != nil {
		return nil, err
	}
	return publicationsFromRecords(records), nil
}

func publicationsFromRecords(records []*neo4j.Record) []Publication {
	pubs := make([]Publication, 0, len(records))
	for _, record := range records {
		pubs = append(pubs, Publication{
			Title:   stringValue(record, "title"),
			Year:    yearValue(record, "year"),
			Authors: authorsValue(record, "authors"),
		})
	}
	return pubs
}

// PublicationFields returns papers whose title contains title together
// with the research fields of their authors.
func (c *Client) PublicationFields(ctx context.Context, title string) ([]PublicationFields, error) {
	const cypher = `
	MATCH (p:Publication)<-[:AUTHORED]-(e:Expert)-[:INTERESTED_IN]->(i:Interest)
	WHERE p.title CONTAINS $title
	WITH DISTINCT p.title AS title, p.year AS year,
	     collect(DISTINCT i.name) AS fields,
	     collect(DISTINCT {name: e.name, name_zh: e.name_zh}) AS authors
	RETURN title, year, fields, authors
	`
	records, err := c.run(ctx, "publication_fields", cypher, map[string]any{"title": title})
	if err != nil {
		return nil, err
	}
	out := make([]PublicationFields, 0, len(records))
	for _, record := range records {
		out = append(out, PublicationFields{
			Title:   stringValue(record, "title"),
			Year:    yearValue(record, "year"),
			Fields:  stringsValue(record, "fields"),
			Authors: authorsValue(record, "authors"),
		})
	}
	return out, nil
}

// MoreInformation returns a handful of expert/paper pairs related to a
// topic, used to answer "还有吗" style follow-ups.
func (c *Client) MoreInformation(ctx context.Context, topic string, limit int) ([]ExpertWork, error) {
	cypher := fmt.Sprintf(`
	MATCH (e:Expert)-[:INTERESTED_IN]->(i:Interest)
	WHERE i.name CONTAINS $topic
	WITH e
	MATCH (e)-[:AUTHORED]->(p:Publication)
	RETURN e.name AS expert, p.title AS title
	LIMIT %d
	`, limit)
	records, err := c.run(ctx, "more_information", cypher, map[string]any{"topic": topic})
	if err != nil {
		return nil, err
	}
	works := make([]ExpertWork, 0, len(records))
	for _, record := range records {
		works = append(works, ExpertWork{
			Expert: stringValue(record, "expert"),
			Title:  stringValue(record, "title"),
		})
	}
	return works, nil
}
