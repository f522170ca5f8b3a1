package mcpserver

// QueryGuide describes the note fields and the filter language accepted by
// the query tools.
const QueryGuide = `# Notepad Query Guide

Notes live in a single collection addressed by resource identifiers:

- ` + "`notes`" + ` – the whole collection
- ` + "`notes/<id>`" + ` – one note (id is a positive integer)
- ` + "`live_folder/notes`" + ` – read-only view exposing only ` + "`id`" + ` and ` + "`name`" + ` (the title)

## Fields

| Field | Type | Notes |
|---|---|---|
| id | integer | assigned by the store, never reused |
| title | text | defaults to "Untitled" |
| body | text | defaults to "" |
| created_at | integer | Unix milliseconds, set on insert |
| modified_at | integer | Unix milliseconds, refreshed on every update |
| category | text | General, Work, Personal or Ideas; defaults to General |

Only title, body and category can be written.

## Filters

A filter is a predicate over field names with ` + "`?`" + ` placeholders:

` + "```" + `
category = ? AND (title LIKE ? OR body LIKE ?)
modified_at >= ? AND NOT category = 'Work'
id IN (1, 2, 3)
title IS NOT NULL
` + "```" + `

Operators: = != <> < <= > >= LIKE, IS [NOT] NULL, IN (...), AND, OR, NOT.
Operands are placeholders, integers or 'single quoted' strings. Pass one
argument per placeholder, in order.

## Sort

` + "`field [ASC|DESC], ...`" + `, for example ` + "`modified_at DESC, title`" + `.
Without a sort, results are ordered newest id first.
`
