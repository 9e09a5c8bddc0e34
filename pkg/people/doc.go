// Package people holds the record types that flow through the ETL pipeline.
//
// A RawRecord is the decoded JSON of one /people/<id> response, or the
// not-found marker standing in for a 404. A Person is the flattened result:
// scalar fields copied verbatim and every relationship field replaced by the
// ", "-joined display names of the resources it points to.
//
// Relationship fields are denormalized strings, never foreign keys. Two people
// born on the same planet each carry their own copy of the planet's name.
package people
