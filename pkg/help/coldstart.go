package help

const ColdstartYAML = `# complexportal Quick Start

outputs:
  namespace: "BEL namespace (.belns) of Complex Portal accessions, label C"
  graph: "BEL script of complexes and their components (hasComponent)"

destinations:
  stdout: "no OUTPUT argument, or '-'"
  file: "any path; written to a temp file and renamed into place"
  gzip: "paths ending in .gz are compressed"

commands:
  namespace_stdout: |
    complexportal namespace

  namespace_file: |
    complexportal namespace complexportal.belns

  graph_file: |
    complexportal graph complexportal.bel.gz

  other_species: |
    complexportal datasets
    complexportal --url "https://ftp.ebi.ac.uk/pub/databases/intact/complex/current/complextab/mus_musculus.tsv" \
      --cache mus_musculus.tsv namespace mus_musculus.belns

  offline: |
    complexportal --offline namespace complexportal.belns

  with_config: |
    complexportal --config complexportal.yaml namespace complexportal.belns

  database: |
    complexportal db populate
    complexportal db summarize --format json
    complexportal db show CPX-1
    complexportal --record namespace complexportal.belns
    complexportal db fetches --limit 10

key_files:
  - "homo_sapiens.tsv (cache of the remote table)"
  - "homo_sapiens.tsv.bak (previous cache, replaced on every successful fetch)"
  - "complexportal.yaml (optional config)"
  - "complexportal.db (optional SQLite database)"

freshness:
  - "The cache digest (sha256 by default, blake3 with --digest) is the artifact version"
  - "Namespace version: [Namespace] VersionString"
  - "Graph version: SET DOCUMENT Version"
  - "If OUTPUT already carries the digest nothing is written"
  - "Delete or rename OUTPUT to force a re-run"
  - "Stdout output is always written"

fetch_behavior:
  - "http, https and ftp URLs"
  - "Download is staged next to the cache and only replaces it when complete"
  - "Failure or --timeout: warning, then the existing cache is used"
  - "No cache and no download: exit 1"

config_fields:
  url: "remote table"
  index_url: "directory listed by 'datasets'"
  cache_path: "local cache file"
  chunk_size: "read/hash chunk size in bytes"
  timeout: "fetch deadline, e.g. 5m"
  digest_algorithm: "sha256 | blake3"
  db_path: "SQLite database"
  namespace: "keyword, name, domain, species, encoding, identifier_field, author, citation"

error_behavior:
  - "Usage errors: fail fast before any network or disk access"
  - "Malformed rows: skipped, counted, logged as a warning"
  - "Exit codes: 0=success or unchanged, 1=no cached data, 2=usage or fatal error"
`
