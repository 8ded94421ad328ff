// Package scraper holds the pieces of the search crawler that do not talk to
// the network or the filesystem: page requests and their query URLs, the
// video link matcher, the visited set and the crawl error type.
//
// The I/O side lives in the subpackages: fetcher (HTTP and headless Chrome),
// extractor (anchor extraction with goquery), sink (the output log) and
// service (the crawl loop that ties them together).
package scraper
