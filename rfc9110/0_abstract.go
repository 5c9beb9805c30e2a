// Package rfc9110 implements the parts of HTTP Semantics needed by an origin
// server that validates responses with entity tags: the entity-tag grammar,
// the If-Match and If-None-Match preconditions, their evaluation order, and
// the header policy of 304 (Not Modified) responses.
//
// Each file follows a section of the RFC and quotes the relevant text.
// Time-based validators (Last-Modified, If-Modified-Since,
// If-Unmodified-Since) and range requests are not implemented.
package rfc9110

// §  Internet Engineering Task Force (IETF)                  R. Fielding, Ed.
// §  Request for Comments: 9110                                         Adobe
// §  STD: 97                                               M. Nottingham, Ed.
// §  Obsoletes: 2818, 7230, 7231, 7232, 7233, 7235,                   Fastly
// §             7538, 7615, 7694                              J. Reschke, Ed.
// §  Updates: 3864                                                 greenbytes
// §  Category: Standards Track                                      June 2022
// §  ISSN: 2070-1721
// §
// §                              HTTP Semantics
// §
// §  Abstract
// §
// §     The Hypertext Transfer Protocol (HTTP) is a stateless application-
// §     level protocol for distributed, collaborative, hypertext information
// §     systems.  This document describes the overall architecture of HTTP,
// §     establishes common terminology, and defines aspects of the protocol
// §     that are shared by all versions.  In this definition are core
// §     protocol elements, extensibility mechanisms, and the "http" and
// §     "https" Uniform Resource Identifier (URI) schemes.
